package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antflydb/antfly-go/libaf/json"
	"github.com/antflydb/antfly-go/libaf/logging"
	"github.com/antflydb/antfly-go/libaf/s3"
	"github.com/antflydb/antfly-go/thesisaf"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract <input-glob>...",
	Short: "Extract structured records from raw document text files",
	Long: `Extract structured records from raw extracted text files.

The input arguments are doublestar glob patterns over local text files, one
document per file. An optional figure manifest (the extractor's JSON) binds
[FIGURE:...] placeholders to image assets; alternatively the manifest can be
listed from an S3 prefix.

Examples:
  # One document with its extractor manifest
  thesisaf extract thesis.txt --manifest thesis_images.json

  # Batch over a directory tree, njuthesis template
  thesisaf extract 'docs/**/*.txt' --template njuthesis --out records/

  # Manifest from a bucket prefix
  thesisaf extract thesis.txt --s3-endpoint minio.local:9000 --s3-bucket theses --s3-prefix t42/images/

The API key is read from the --api-key flag or the THESISAF_API_KEY
environment variable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	flags := extractCmd.Flags()
	flags.String("manifest", "", "Path to the extractor's figure manifest JSON")
	flags.String("template", "generic", "Template identifier for required metadata fields")
	flags.String("model", "deepseek-chat", "Model identifier")
	flags.String("base-url", "https://api.deepseek.com/v1", "OpenAI-compatible API base URL")
	flags.String("api-key", "", "API key (or THESISAF_API_KEY env)")
	flags.Int("concurrency", thesisaf.DefaultConcurrency, "Concurrent model calls per document")
	flags.Int("chunk-budget", thesisaf.DefaultChunkBudget, "Max chunk size in characters")
	flags.Int("rate-limit", 0, "Model calls per minute, 0 = unlimited")
	flags.String("out", "", "Output directory (default: record JSON next to each input)")
	flags.String("log-style", "terminal", "Log style: terminal, json, logfmt, noop")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	flags.String("s3-endpoint", "", "S3 endpoint for manifest-from-bucket")
	flags.String("s3-bucket", "", "S3 bucket holding the document's images")
	flags.String("s3-prefix", "", "S3 key prefix for the document's images")
	flags.Bool("s3-ssl", true, "Use SSL for the S3 endpoint")

	viper.SetEnvPrefix("THESISAF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logger := logging.NewLogger(&logging.Config{
		Style: logging.Style(viper.GetString("log-style")),
		Level: logging.Level(viper.GetString("log-level")),
	})

	apiKey := viper.GetString("api-key")
	if apiKey == "" {
		return fmt.Errorf("no API key: set --api-key or THESISAF_API_KEY")
	}
	caller, err := thesisaf.NewOpenAICaller(thesisaf.OpenAIConfig{
		BaseURL: viper.GetString("base-url"),
		APIKey:  apiKey,
		Model:   viper.GetString("model"),
	})
	if err != nil {
		return fmt.Errorf("creating model caller: %w", err)
	}
	defer caller.Close()

	manifest, err := loadManifest(ctx)
	if err != nil {
		return err
	}

	pipeline, err := thesisaf.NewPipeline(thesisaf.PipelineConfig{
		ChunkBudget:        viper.GetInt("chunk-budget"),
		Concurrency:        viper.GetInt("concurrency"),
		RateLimitPerMinute: viper.GetInt("rate-limit"),
		Model:              viper.GetString("model"),
	}, caller, nil, logger)
	if err != nil {
		return err
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files match %v", args)
	}

	templateID := viper.GetString("template")
	outDir := viper.GetString("out")
	var firstErr error
	for _, path := range inputs {
		if err := extractOne(ctx, pipeline, path, templateID, manifest, outDir); err != nil {
			logger.Error("document failed", zap.Error(err), zap.String("input", path))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func extractOne(ctx context.Context, pipeline *thesisaf.Pipeline, path, templateID string, manifest *thesisaf.FigureManifest, outDir string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	report, err := pipeline.Run(ctx, thesisaf.DocumentInput{
		Text:       string(text),
		Manifest:   manifest,
		TemplateID: templateID,
	})
	if err != nil {
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	out := outputPath(path, outDir)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

// expandInputs resolves doublestar glob patterns against the filesystem.
// Plain paths pass through so quoting mistakes do not hide files.
func expandInputs(patterns []string) ([]string, error) {
	var inputs []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		if matches == nil {
			if _, statErr := os.Stat(pattern); statErr == nil {
				matches = []string{pattern}
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				inputs = append(inputs, m)
			}
		}
	}
	return inputs, nil
}

func outputPath(input, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".record.json"
	if outDir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	return filepath.Join(outDir, base)
}

// loadManifest builds the figure manifest from --manifest JSON, from an S3
// prefix listing, or empty when neither is given.
func loadManifest(ctx context.Context) (*thesisaf.FigureManifest, error) {
	if path := viper.GetString("manifest"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}
		return thesisaf.ParseManifestJSON(data)
	}
	if viper.GetString("s3-bucket") != "" {
		return manifestFromS3(ctx)
	}
	return thesisaf.NewFigureManifest(nil), nil
}

// manifestFromS3 lists image objects under a bucket prefix and turns each
// into a manifest entry: the identifier is the object's base name without
// extension, the filename is the base name, indices follow listing order.
func manifestFromS3(ctx context.Context) (*thesisaf.FigureManifest, error) {
	creds := &s3.Credentials{
		Endpoint: viper.GetString("s3-endpoint"),
		UseSsl:   viper.GetBool("s3-ssl"),
	}
	client, err := creds.NewMinioClient()
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %w", err)
	}

	bucket := viper.GetString("s3-bucket")
	var assets []thesisaf.FigureAsset
	objects := client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    viper.GetString("s3-prefix"),
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return nil, fmt.Errorf("listing bucket %s: %w", bucket, object.Err)
		}
		name := filepath.Base(object.Key)
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".emf", ".wmf":
		default:
			continue
		}
		assets = append(assets, thesisaf.FigureAsset{
			ID:       strings.TrimSuffix(name, filepath.Ext(name)),
			Filename: name,
		})
	}
	return thesisaf.NewFigureManifest(assets), nil
}
