// Package cli provides the command-line interface for querying the
// cloud-image catalog: supported releases, the current release, and
// per-release image digests.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/japence/simplestream-parser/internal/catalog"
	"github.com/japence/simplestream-parser/internal/config"
	"github.com/japence/simplestream-parser/internal/gpg"
	"github.com/japence/simplestream-parser/internal/simplestream"
)

// ReleaseEntry represents one supported release for output.
type ReleaseEntry struct {
	ReleaseTitle string `json:"release_title"`
	Release      string `json:"release"`
}

// CurrentRelease represents the current default release for output.
type CurrentRelease struct {
	Found   bool   `json:"found"`
	Version string `json:"version,omitempty"`
	Pubname string `json:"pubname,omitempty"`
}

// DigestResult represents one release identifier lookup for output.
type DigestResult struct {
	Release string `json:"release"`
	Found   bool   `json:"found"`
	Pubname string `json:"pubname,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "simplestream",
		Usage:   "Query Ubuntu cloud image release information",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"C"},
				Usage:   "path to configuration file",
				EnvVars: []string{"SIMPLESTREAM_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "log level for structured JSON output (debug, info, warn, error)",
				EnvVars: []string{"SIMPLESTREAM_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "output format (text, json)",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "read the catalog document from a local file instead of the network",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List currently supported Ubuntu releases",
				Action:  listReleases,
			},
			{
				Name:    "current",
				Aliases: []string{"c"},
				Usage:   "Show the current Ubuntu LTS release",
				Action:  currentRelease,
			},
			{
				Name:      "sha256",
				Aliases:   []string{"s"},
				Usage:     "Print the SHA256 checksum of the disk image for each release",
				ArgsUsage: "<release>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "revision",
						Aliases: []string{"r"},
						Usage:   "catalog revision id (defaults to the newest revision)",
					},
				},
				Action: releaseDigests,
			},
		},
	}
}

// session carries the state shared by one command invocation: the loaded
// configuration and the parsed catalog.
type session struct {
	cfg    *config.Config
	cat    *catalog.Catalog
	logger *slog.Logger
}

func newSession(c *cli.Context) (*session, error) {
	logger := NewLogger(ParseLogLevelOrDefault(c.String("log-level")))

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	raw, err := fetchDocument(c.Context, cfg, c.String("input"), logger)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Parse(raw, catalog.Options{
		Architecture: cfg.Catalog.Architecture,
		ImageTag:     cfg.Catalog.ImageTag,
		DigestField:  cfg.Catalog.DigestField,
	})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, cat: cat, logger: logger}, nil
}

// fetchDocument produces the raw catalog text, from a local file or from the
// configured endpoint, verifying the clearsigned variant when configured.
func fetchDocument(ctx context.Context, cfg *config.Config, inputPath string, logger *slog.Logger) ([]byte, error) {
	var raw []byte
	if inputPath != "" {
		logger.Debug("reading catalog document from file", "path", inputPath)
		var err error
		raw, err = os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog document: %w", err)
		}
	} else {
		client := simplestream.NewClient(simplestream.Config{
			BaseURL:         cfg.Stream.BaseURL,
			IndexPath:       cfg.Stream.IndexPath,
			SignedIndexPath: cfg.Stream.SignedIndexPath,
			UserAgent:       cfg.Stream.UserAgent,
			Timeout:         cfg.Stream.GetTimeout(),
		})

		var err error
		if cfg.Verification.GPG.Enabled {
			logger.Debug("fetching signed catalog document",
				"base_url", cfg.Stream.BaseURL,
				"path", cfg.Stream.SignedIndexPath)
			raw, err = client.FetchSignedIndex(ctx)
		} else {
			logger.Debug("fetching catalog document",
				"base_url", cfg.Stream.BaseURL,
				"path", cfg.Stream.IndexPath)
			raw, err = client.FetchIndex(ctx)
		}
		if err != nil {
			return nil, err
		}
	}

	if cfg.Verification.GPG.Enabled {
		keyRing, err := gpg.LoadKeyRingFromDir(cfg.Verification.GPG.KeysDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load verification keys: %w", err)
		}
		plaintext, err := gpg.VerifyClearSigned(keyRing, string(raw))
		if err != nil {
			return nil, err
		}
		logger.Debug("catalog signature verified")
		return plaintext, nil
	}

	return raw, nil
}

// listReleases implements the list command.
func listReleases(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	products, err := s.cat.SupportedProducts()
	if err != nil {
		return err
	}

	entries := make([]ReleaseEntry, 0, len(products))
	for _, product := range products {
		title, err := product.ReleaseTitle()
		if err != nil {
			return err
		}
		release, err := product.Release()
		if err != nil {
			return err
		}
		entries = append(entries, ReleaseEntry{ReleaseTitle: title, Release: release})
	}

	if c.String("output") == "json" {
		return printJSON(entries)
	}

	fmt.Println("Supported Ubuntu releases:")
	for _, entry := range entries {
		fmt.Printf("  %s (%s)\n", entry.ReleaseTitle, entry.Release)
	}
	return nil
}

// currentRelease implements the current command.
func currentRelease(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	product, ok, err := s.cat.CurrentProduct()
	if err != nil {
		return err
	}

	result := CurrentRelease{Found: ok}
	if ok {
		if result.Version, err = product.Version(); err != nil {
			return err
		}
		if result.Pubname, err = product.Pubname(""); err != nil {
			return err
		}
	}

	if c.String("output") == "json" {
		if err := printJSON(result); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no current release found")
		}
		return nil
	}

	if !ok {
		return fmt.Errorf("no current release found")
	}
	fmt.Printf("Current Ubuntu LTS version: %s\n", result.Version)
	fmt.Printf("  %s\n", result.Pubname)
	return nil
}

// releaseDigests implements the sha256 command. Identifiers that resolve to
// no product are reported individually; the batch continues.
func releaseDigests(c *cli.Context) error {
	releases := c.Args().Slice()
	if len(releases) == 0 {
		return fmt.Errorf("no release specified")
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}

	revision := c.String("revision")
	textOutput := c.String("output") != "json"

	results := make([]DigestResult, 0, len(releases))
	for _, release := range releases {
		result, err := lookupDigest(s, release, revision)
		if err != nil {
			return err
		}
		results = append(results, result)

		if !textOutput {
			continue
		}
		if !result.Found {
			fmt.Printf("error: %s\n", result.Error)
			continue
		}
		fmt.Printf("SHA256 checksum for %s of %s:\n", s.cfg.Catalog.ImageTag, result.Pubname)
		fmt.Printf("  %s\n", result.SHA256)
	}

	if !textOutput {
		return printJSON(results)
	}
	return nil
}

// lookupDigest resolves one identifier to its pubname and digest. Misses are
// reported in the result, not as errors.
func lookupDigest(s *session, release, revision string) (DigestResult, error) {
	product, ok, err := s.cat.FindProduct(release)
	if err != nil {
		return DigestResult{}, err
	}
	if !ok {
		return DigestResult{
			Release: release,
			Error:   fmt.Sprintf("release %q not found", release),
		}, nil
	}

	pubname, err := product.Pubname(revision)
	if err != nil {
		return digestFailure(release, err)
	}
	digest, err := product.ImageDigest(revision)
	if err != nil {
		return digestFailure(release, err)
	}

	return DigestResult{
		Release: release,
		Found:   true,
		Pubname: pubname,
		SHA256:  digest,
	}, nil
}

// digestFailure keeps a missing explicit revision from aborting the rest of
// the batch; structural failures still do.
func digestFailure(release string, err error) (DigestResult, error) {
	var notFound *catalog.RevisionNotFoundError
	if errors.As(err, &notFound) {
		return DigestResult{Release: release, Error: err.Error()}, nil
	}
	return DigestResult{}, err
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
