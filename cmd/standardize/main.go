package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/app"
	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/config"
	"github.com/agenthands/modelstd/internal/core"
	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/core/review"
	"github.com/agenthands/modelstd/internal/core/translate"
	"github.com/agenthands/modelstd/internal/logging"
	"github.com/agenthands/modelstd/internal/modelio"
)

type options struct {
	configPath    string
	modelPath     string
	biochemPath   string
	outPath       string
	reportPath    string
	approvalsPath string
	maxIterations int
	review        bool
	logLevel      string
}

// reportDocument is written by --report.
type reportDocument struct {
	Report       model.ComparisonReport  `json:"report"`
	Applied      translate.Stats         `json:"applied"`
	Translations *model.TranslationMap   `json:"translations"`
	Proposals    []model.ProposedMatch   `json:"proposals"`
	Clusters     [][]model.ProposedMatch `json:"clusters,omitempty"`
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "standardize",
		Short:         "Translate a metabolic model into reference database identifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "TOML config file")
	pf.StringVar(&o.biochemPath, "biochem", "", "reference biochemistry JSON (overrides the configured source)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the [log] section")

	f := cmd.Flags()
	f.StringVarP(&o.modelPath, "model", "m", "", "input model JSON (required)")
	f.StringVarP(&o.outPath, "out", "o", "", "output model JSON (required)")
	f.StringVar(&o.reportPath, "report", "", "write the comparison report, translations and proposals here")
	f.StringVar(&o.approvalsPath, "approvals", "", "JSON list of reviewer approvals to apply")
	f.IntVar(&o.maxIterations, "max-iterations", 0, "matching rounds before giving up (default from config)")
	f.BoolVar(&o.review, "review", false, "ask the configured LLM for advice on proposals")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("out")

	cmd.AddCommand(newSeedCommand(o))
	return cmd
}

func newSeedCommand(o *options) *cobra.Command {
	var database string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a biochemistry JSON file into Memgraph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(o)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if o.biochemPath == "" {
				return fmt.Errorf("--biochem is required")
			}
			if database == "" {
				database = cfg.Biochem.Database
			}
			db, err := biochem.LoadJSON(o.biochemPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d, err := app.Connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer d.Close(ctx)
			if err := biochem.SaveGraph(ctx, d, database, db); err != nil {
				return err
			}
			nodes, err := biochem.CountGraph(ctx, d, database)
			if err != nil {
				return err
			}
			compounds, reactions := db.Size()
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d compounds, %d reactions (%d nodes)\n", database, compounds, reactions, nodes)
			return nil
		},
	}
	cmd.Flags().StringVar(&database, "database", "", "database name stored on every node (default from config)")
	return cmd
}

func setup(o *options) (*config.Config, *zap.Logger, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}
	if o.biochemPath != "" {
		cfg.Biochem.Source = "json"
		cfg.Biochem.Path = o.biochemPath
	}
	if o.maxIterations != 0 {
		cfg.Standardizer.MaxIterations = o.maxIterations
	}
	if o.review {
		cfg.Review.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func run(cmd *cobra.Command, o *options) error {
	cfg, logger, err := setup(o)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	wm, err := modelio.Load(o.modelPath)
	if err != nil {
		return err
	}
	res, err := a.Standardizer.Standardize(ctx, wm, cfg.Standardizer.MaxIterations)
	if err != nil {
		return err
	}

	if o.approvalsPath != "" {
		approvals, err := readApprovals(o.approvalsPath)
		if err != nil {
			return err
		}
		if err := a.Standardizer.Approve(res, approvals...); err != nil {
			return err
		}
	}
	if a.Advisor != nil {
		advised, err := a.Advisor.Advise(ctx, res.Proposals, res.Normalized)
		if err != nil {
			return err
		}
		res.Proposals = advised
	}

	if err := modelio.Save(o.outPath, res.Model); err != nil {
		return err
	}
	if o.reportPath != "" {
		doc := reportDocument{
			Report:       res.Report,
			Applied:      res.Applied,
			Translations: res.Translations,
			Proposals:    res.Proposals,
			Clusters:     review.Clusters(res.Proposals),
		}
		if err := modelio.WriteJSON(o.reportPath, doc); err != nil {
			return err
		}
	}

	r := res.Report
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s after %d round(s)\n", r.Outcome, r.Rounds)
	fmt.Fprintf(out, "compounds: %d exact, %d probable, %d ambiguous, %d unmatched of %d\n",
		r.Compounds.Exact, r.Compounds.Probable, r.Compounds.Ambiguous, r.Compounds.Unmatched, r.Compounds.Total)
	fmt.Fprintf(out, "reactions: %d exact, %d probable, %d ambiguous, %d unmatched of %d\n",
		r.Reactions.Exact, r.Reactions.Probable, r.Reactions.Ambiguous, r.Reactions.Unmatched, r.Reactions.Total)
	fmt.Fprintf(out, "proposals: %d\n", len(res.Proposals))
	return nil
}

func readApprovals(path string) ([]core.Approval, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read approvals: %w", err)
	}
	var approvals []core.Approval
	if err := json.Unmarshal(data, &approvals); err != nil {
		return nil, fmt.Errorf("failed to parse approvals: %w", err)
	}
	return approvals, nil
}
