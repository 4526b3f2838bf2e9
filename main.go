package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"analiseilpi/plan"
	"analiseilpi/table"
	"analiseilpi/transform"
	"github.com/dadosjusbr/status"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Códigos de saída além dos definidos em status.
const (
	errReadingInput = 4
	errParsingInput = 5
)

var (
	verbose    bool
	outputPath string
	separator  string
	latin1     bool

	planPath  string
	inputPath string
	noZip     bool

	discriminator string
	keys          []string

	aggregation   string
	orderColumn   string
	withoutNoRisk bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ilpi",
	Short:         "Tabelas dos relatórios de ILPI a partir da exportação do REDCap",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Executa todas as análises de um plano e empacota as tabelas",
	RunE:  runPlan,
}

var propagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "Preenche as chaves do residente nas linhas dos instrumentos repetidos",
	RunE:  runPropagate,
}

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Classifica os residentes pelo score de fragilidade",
	RunE:  runRiskCmd,
}

func init() {
	defaultOutput := os.Getenv("OUTPUT_FOLDER")
	if defaultOutput == "" {
		defaultOutput = "./"
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", defaultOutput, "Output folder (default: $OUTPUT_FOLDER or ./)")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "REDCap CSV export")
	rootCmd.PersistentFlags().StringVar(&separator, "sep", "", "Input delimiter, , or ; (default: plan or ,)")
	rootCmd.PersistentFlags().BoolVar(&latin1, "latin1", false, "Input encoded in ISO-8859-1")

	runCmd.Flags().StringVarP(&planPath, "plan", "p", "", "Analysis plan (YAML)")
	runCmd.Flags().BoolVar(&noZip, "no-zip", false, "Keep the CSV files instead of zipping them")
	_ = runCmd.MarkFlagRequired("plan")

	propagateCmd.Flags().StringVar(&discriminator, "discriminator", "institution_name", "Column starting a new group when filled")
	propagateCmd.Flags().StringSliceVar(&keys, "keys", []string{"cpf", "full_name", "institution_name"}, "Columns filled from the first row of each group")

	riskCmd.Flags().StringVar(&aggregation, "aggregation", "worst", "How to combine the rows of a resident: worst or latest")
	riskCmd.Flags().StringVar(&orderColumn, "order", "", "Column ordering the rows of a resident for --aggregation latest")
	riskCmd.Flags().BoolVar(&withoutNoRisk, "without-no-risk", false, "Leave residents matching no tier unlabeled")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(propagateCmd)
	rootCmd.AddCommand(riskCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		status.ExitFromError(err)
	}
}

func csvOptions(p *plan.Plan) table.CSVOptions {
	opts := table.CSVOptions{Comma: ',', Latin1: latin1}
	if p != nil {
		opts.Comma = p.Comma()
		opts.Latin1 = opts.Latin1 || p.Source.Latin1
	}
	if separator == ";" {
		opts.Comma = ';'
	} else if separator == "," {
		opts.Comma = ','
	}
	return opts
}

func loadInput(opts table.CSVOptions) (*table.Table, error) {
	if separator != "" && separator != "," && separator != ";" {
		return nil, status.NewError(errParsingInput, fmt.Errorf("invalid separator %q, use , or ;", separator))
	}
	if inputPath == "" {
		return nil, status.NewError(errReadingInput, errors.New("missing --input"))
	}
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, status.NewError(errReadingInput, fmt.Errorf("error reading input (%s):%q", inputPath, err))
	}
	defer f.Close()
	t, err := table.ReadCSV(f, opts)
	if err != nil {
		return nil, status.NewError(errParsingInput, fmt.Errorf("error parsing input (%s):%q", inputPath, err))
	}
	logger.Debug("input loaded",
		zap.String("path", inputPath),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns())))
	return t, nil
}

// analysisError separates a table that does not fit the plan from a failure
// writing the output.
func analysisError(err error) error {
	if errors.Is(err, table.ErrMissingColumn) || errors.Is(err, plan.ErrInvalidPlan) {
		return status.NewError(errParsingInput, err)
	}
	return status.NewError(status.SystemError, err)
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := plan.Load(planPath)
	if err != nil {
		if errors.Is(err, plan.ErrInvalidPlan) {
			return status.NewError(errParsingInput, err)
		}
		return status.NewError(errReadingInput, err)
	}
	t, err := loadInput(csvOptions(p))
	if err != nil {
		return err
	}
	if p.Propagation != nil {
		t, err = transform.Propagate(t, p.Propagation.Discriminator, p.Propagation.Keys)
		if err != nil {
			return status.NewError(errParsingInput, fmt.Errorf("error propagating keys: %w", err))
		}
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return status.NewError(status.SystemError, fmt.Errorf("error creating output folder (%s):%q", outputPath, err))
	}

	files, err := runAnalyses(p, t, outputPath, logger)
	if err != nil {
		return analysisError(err)
	}
	result := ExecutionResult{Plano: planName(p), Linhas: t.Len(), Tabelas: files}

	if !noZip {
		zipName := filepath.Join(outputPath, fmt.Sprintf("relatorio-%s.zip", planName(p)))
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Arquivo
		}
		if err := zipFiles(zipName, outputPath, paths); err != nil {
			return status.NewError(status.SystemError, fmt.Errorf("error zipping report (%s):%q", zipName, err))
		}
		// Removendo os CSVs soltos, que já estão no zip
		for _, f := range paths {
			if err := os.Remove(f); err != nil {
				return status.NewError(status.SystemError, fmt.Errorf("error removing report file (%s):%q", f, err))
			}
		}
		result.Pacote = zipName
		logger.Info("report packaged", zap.String("zip", zipName), zap.Int("files", len(paths)))
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return status.NewError(status.Unknown, fmt.Errorf("error marshalling result:%q", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
	return nil
}

func planName(p *plan.Plan) string {
	if p.Name != "" {
		return p.Name
	}
	return strings.TrimSuffix(filepath.Base(planPath), filepath.Ext(planPath))
}

func runPropagate(cmd *cobra.Command, args []string) error {
	t, err := loadInput(csvOptions(nil))
	if err != nil {
		return err
	}
	out, err := transform.Propagate(t, discriminator, keys)
	if err != nil {
		return status.NewError(errParsingInput, fmt.Errorf("error propagating keys: %w", err))
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return status.NewError(status.SystemError, fmt.Errorf("error creating output folder (%s):%q", outputPath, err))
	}
	path := filepath.Join(outputPath, "propagado.csv")
	if err := tableToCSVFile(out, path); err != nil {
		return status.NewError(status.SystemError, err)
	}
	logger.Info("keys propagated", zap.String("file", path), zap.Strings("keys", keys), zap.Int("rows", out.Len()))
	return nil
}

func runRiskCmd(cmd *cobra.Command, args []string) error {
	include := !withoutNoRisk
	a := plan.Analysis{
		Name: "fragilidade",
		Type: plan.Risk,
		Risk: &plan.RiskConfig{IncludeNoRisk: &include, Aggregation: aggregation, Order: orderColumn},
	}
	if err := (&plan.Plan{Analyses: []plan.Analysis{a}}).Validate(); err != nil {
		return status.NewError(errParsingInput, err)
	}
	t, err := loadInput(csvOptions(nil))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return status.NewError(status.SystemError, fmt.Errorf("error creating output folder (%s):%q", outputPath, err))
	}
	files, err := runRisk(a, t, outputPath)
	if err != nil {
		return analysisError(err)
	}
	for _, f := range files {
		logger.Info("analysis written", zap.String("analysis", f.Analise), zap.String("file", f.Arquivo), zap.Int("rows", f.Linhas))
	}
	return nil
}
