// Package scan implements the carve scan command: the chunked sweep
// over a source, streamed to the terminal as each file is recovered.
package scan

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shubham/sigcarve/internal/byteunit"
	"github.com/shubham/sigcarve/internal/carver"
	"github.com/shubham/sigcarve/internal/signature"
)

// NewScanCmd builds the scan subcommand.
func NewScanCmd() *cobra.Command {
	var (
		source      string
		out         string
		minSizeStr  string
		dedup       bool
		types       string
		chunkStr    string
		overlapStr  string
		maxFiles    int
		maxBytesStr string
		startOffset int64
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a source for recoverable files",
		Long:  `Scan a raw disk image or device for known file signatures and write each recovered file to the output directory.`,
		Example: heredoc.Doc(`
			$ carve scan --source /dev/sdb1 --out ./recovered
			$ carve scan --source image.dd --out ./recovered --types jpeg,png --dedup
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" {
				return fmt.Errorf("scan: --source is required")
			}
			if out == "" {
				out = viper.GetString("out")
			}
			if out == "" {
				return fmt.Errorf("scan: --out is required")
			}
			if minSizeStr == "" {
				minSizeStr = viper.GetString("min-size")
			}
			if !cmd.Flags().Changed("dedup") && viper.IsSet("dedup") {
				dedup = viper.GetBool("dedup")
			}

			minSize, err := byteunit.Parse(minSizeStr)
			if err != nil {
				return fmt.Errorf("scan: --min-size: %w", err)
			}
			maxBytes, err := byteunit.Parse(maxBytesStr)
			if err != nil {
				return fmt.Errorf("scan: --max-bytes: %w", err)
			}
			chunkSize, err := byteunit.Parse(chunkStr)
			if err != nil {
				return fmt.Errorf("scan: --chunk-size: %w", err)
			}
			overlap, err := byteunit.Parse(overlapStr)
			if err != nil {
				return fmt.Errorf("scan: --overlap: %w", err)
			}

			sigs := signature.DefaultSet()
			if types != "" {
				sigs = filterSignatures(sigs, strings.Split(types, ","))
				if len(sigs) == 0 {
					return fmt.Errorf("scan: --types matched no known signature")
				}
			}

			opts := carver.NewOptions()
			if minSizeStr != "" {
				opts.MinSize = minSize
			}
			opts.Deduplicate = dedup
			opts.WriteOutput = true
			opts.MaxFiles = maxFiles
			opts.StartOffset = startOffset
			if maxBytes > 0 {
				opts.MaxBytes = maxBytes
			}
			if chunkSize > 0 {
				opts.ChunkSize = int(chunkSize)
			}
			if overlap > 0 {
				opts.Overlap = int(overlap)
			}

			c, err := carver.New(source, out, sigs, opts, carver.Hooks{})
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			found := 0
			for res := range c.Scan(ctx) {
				if !res.OK {
					log.Warn("write failed", "signature", res.SignatureName, "offset", res.StartOffset, "note", res.Note)
					continue
				}
				found++
				log.Info("recovered", "signature", res.SignatureName, "offset", res.StartOffset, "size", res.Length(), "path", res.OutPath)
			}

			log.Info("scan complete", "state", c.State(), "recovered", found)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "raw device or image path to scan")
	cmd.Flags().StringVar(&out, "out", "", "output directory for recovered files")
	cmd.Flags().StringVar(&minSizeStr, "min-size", "", "skip candidates smaller than this size (e.g. 256, 4k)")
	cmd.Flags().BoolVar(&dedup, "dedup", true, "skip candidates whose content was already recovered")
	cmd.Flags().StringVar(&types, "types", "", "comma-separated signature names to restrict the scan to")
	cmd.Flags().StringVar(&chunkStr, "chunk-size", "", "sweep chunk size (e.g. 1m)")
	cmd.Flags().StringVar(&overlapStr, "overlap", "", "sweep chunk overlap (e.g. 64k)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "stop after recovering this many files (0 = unlimited)")
	cmd.Flags().StringVar(&maxBytesStr, "max-bytes", "", "stop the sweep at this byte offset of the source (0/none = unlimited)")
	cmd.Flags().Int64Var(&startOffset, "start-offset", 0, "byte offset to begin scanning from")

	return cmd
}

func filterSignatures(all []signature.Signature, names []string) []signature.Signature {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	var out []signature.Signature
	for _, sig := range all {
		if _, ok := want[strings.ToLower(sig.Name)]; ok {
			out = append(out, sig)
		}
	}
	return out
}
