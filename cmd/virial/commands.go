package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/libvirial/overlap"
	"github.com/fine-structures/virial/virial"
	"github.com/go-python/gpython/py"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configPath  string
	catalogPath string
	reportPath  string
	points      int
	replicas    int

	genOpts   diagram.GenerateOpts
	printOpts = virial.DefaultPrintOpts

	rootCmd = &cobra.Command{
		Use:          "virial",
		Short:        "Virial coefficients from cluster diagrams and overlap sampling",
		SilenceUsage: true,
	}

	diagramsCmd = &cobra.Command{
		Use:   "diagrams N",
		Short: "Prints the cluster diagrams of order N",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagrams,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Estimates a virial coefficient by overlap sampling against hard spheres",
		Args:  cobra.NoArgs,
		Run:   runOverlap,
	}

	scriptCmd = &cobra.Command{
		Use:   "script [file.py [args...]]",
		Short: "Runs a gpython script with the virial module (or a REPL with no file)",
		Run: func(cmd *cobra.Command, args []string) {
			pathname := ""
			if len(args) > 0 {
				pathname, args = args[0], args[1:]
			}
			if err := runScript(pathname, args); err != nil {
				py.TracebackDump(err)
				klog.Fatalf("script: %v", err)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "diagram catalog directory (in-memory if empty)")

	f := diagramsCmd.Flags()
	f.BoolVar(&genOpts.ExcludeArticulationPoints, "biconnected", true, "exclude diagrams with an articulation point")
	f.BoolVar(&genOpts.ExcludeArticulationPairs, "triconnected", false, "exclude diagrams with an articulation pair")
	f.BoolVar(&genOpts.ReeHoover, "ree-hoover", false, "emit Ree-Hoover diagrams with their factors")
	f.BoolVar(&genOpts.AllPermutations, "labelled", false, "emit every distinct labelling")
	f.BoolVar(&genOpts.ExcludeNodalPoints, "no-nodal", false, "with --labelled, drop labellings where a point separates points 0 and 1")
	f.BoolVar(&printOpts.Matrix, "matrix", false, "print adjacency matrices")
	f.StringVar(&printOpts.Label, "label", "", "prefix for each printed line")

	f = runCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML run configuration")
	f.StringVar(&reportPath, "report", "", "write the YAML report here instead of stdout")
	f.IntVar(&points, "points", 0, "cluster order (overrides the config)")
	f.IntVar(&replicas, "replicas", 0, "independent replicas run in parallel (overrides the config)")

	rootCmd.AddCommand(diagramsCmd, runCmd, scriptCmd)
}

func runDiagrams(cmd *cobra.Command, args []string) error {
	if _, err := fmt.Sscan(args[0], &genOpts.N); err != nil {
		return fmt.Errorf("bad diagram order %q", args[0])
	}

	ctx := virial.NewCatalogContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	var stream *diagram.Stream
	if catalogPath == "" {
		stream = diagram.Enumerate(genOpts)
	} else {
		cat, err := diagram.OpenCatalog(ctx, diagram.CatalogOpts{DbPathName: catalogPath})
		if err != nil {
			return err
		}
		diagrams, err := diagram.GenerateCached(cat, genOpts)
		if err != nil {
			return err
		}
		stream = diagram.StreamDiagrams(diagrams)
	}

	out := stream.Print(os.Stdout, printOpts)
	count := out.PullAll()
	if err := out.Err(); err != nil {
		return err
	}
	klog.Infof("%d diagrams", count)
	return nil
}

// Report is the YAML document written by the run command.
type Report struct {
	Config virial.Config `yaml:"config"`
	Result ReportResult  `yaml:"result"`
}

type ReportResult struct {
	Alpha            float64        `yaml:"alpha"`
	Blocks           int            `yaml:"blocks"`
	Ratio            float64        `yaml:"ratio"`
	RatioError       float64        `yaml:"ratio_error"`
	Reference        float64        `yaml:"reference"`
	Coefficient      float64        `yaml:"coefficient"`
	CoefficientError float64        `yaml:"coefficient_error"`
	Chains           [2]ReportChain `yaml:"chains"`
}

type ReportChain struct {
	Value            float64 `yaml:"value"`
	ValueError       float64 `yaml:"value_error"`
	BlockCorrelation float64 `yaml:"block_correlation"`
	Overlap          float64 `yaml:"overlap"`
	OverlapError     float64 `yaml:"overlap_error"`
	Acceptance       float64 `yaml:"acceptance"`
	StepSize         float64 `yaml:"step_size"`
}

func newReport(cfg virial.Config, res overlap.Result) Report {
	rep := Report{
		Config: cfg,
		Result: ReportResult{
			Alpha:            res.Alpha,
			Blocks:           res.Blocks,
			Ratio:            res.RatioAverage,
			RatioError:       res.RatioError,
			Reference:        res.ReferenceCoefficient,
			Coefficient:      res.Coefficient,
			CoefficientError: res.CoefficientError,
		},
	}
	for i, ch := range res.Chains {
		rep.Result.Chains[i] = ReportChain{
			Value:            ch.ValueAverage,
			ValueError:       ch.ValueError,
			BlockCorrelation: ch.BlockCorrelation,
			Overlap:          ch.OverlapAverage,
			OverlapError:     ch.OverlapError,
			Acceptance:       ch.Acceptance,
			StepSize:         ch.StepSize,
		}
	}
	return rep
}

func writeReport(w io.Writer, rep Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

func runOverlap(cmd *cobra.Command, args []string) {
	cfg := virial.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = virial.LoadConfig(configPath); err != nil {
			klog.Fatalf("config: %v", err)
		}
	}
	if points > 0 {
		cfg.System.Points = points
	}
	if replicas > 0 {
		cfg.Sampling.Replicas = replicas
	}
	if catalogPath != "" {
		cfg.Catalog = catalogPath
	}

	ctx := virial.NewCatalogContext()
	var cat *diagram.Catalog
	if cfg.Catalog != "" {
		var err error
		if cat, err = diagram.OpenCatalog(ctx, diagram.CatalogOpts{DbPathName: cfg.Catalog}); err != nil {
			klog.Fatalf("catalog: %v", err)
		}
	}

	res, err := overlap.Run(context.Background(), &cfg, cat)
	ctx.Close()
	<-ctx.Done()
	if err != nil {
		klog.Fatalf("overlap run aborted: %v", err)
	}

	out := io.Writer(os.Stdout)
	if reportPath != "" {
		file, err := os.Create(reportPath)
		if err != nil {
			klog.Fatalf("report: %v", err)
		}
		defer file.Close()
		out = file
	}
	if err = writeReport(out, newReport(cfg, res)); err != nil {
		klog.Fatalf("report: %v", err)
	}
}
