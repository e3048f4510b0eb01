package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fulcrumgenomics/fgprimer/internal/bwa"
	"github.com/fulcrumgenomics/fgprimer/internal/design"
	"github.com/fulcrumgenomics/fgprimer/internal/genome"
	"github.com/fulcrumgenomics/fgprimer/internal/ntthal"
	"github.com/fulcrumgenomics/fgprimer/internal/offtarget"
	"github.com/fulcrumgenomics/fgprimer/internal/output"
	"github.com/fulcrumgenomics/fgprimer/internal/primer3"
	"github.com/fulcrumgenomics/fgprimer/internal/variant"
)

type designFlags struct {
	target             string
	reference          string
	vcfs               []string
	variantDB          string
	minMaf             float64
	includeMissingMafs bool

	primer3Exe string
	bwaExe     string
	bwaIndex   string
	ntthalExe  string

	ampliconSizeMin int
	ampliconSizeOpt int
	ampliconSizeMax int
	numToReturn     int
	maxDinucBases   int

	maxPrimerHits     int
	maxPrimerPairHits int
	maxMismatches     int
	seedLength        int

	dimerTm float64
	out     string
}

func newDesignCmd() *cobra.Command {
	var flags designFlags

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Design primer pairs for one target interval",
		Example: `  fgprimer design --target chr2:9040-9059 --reference genome.fa \
    --vcf common_variants.vcf.gz --primer3 primer3_core --bwa bwa --bwa-index genome.fa \
    --ntthal ntthal -o primers.bed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfig(cmd, &flags)
			return runDesign(&flags)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flags.target, "target", "", "target interval as chrom:start-end (1-based closed)")
	fs.StringVar(&flags.reference, "reference", "", "reference genome FASTA")
	fs.StringSliceVar(&flags.vcfs, "vcf", nil, "variant catalog VCFs to mask against (repeatable)")
	fs.StringVar(&flags.variantDB, "variant-db", "", "variant store built with 'fgprimer variant-db'")
	fs.Float64Var(&flags.minMaf, "min-maf", 0.01, "minimum minor-allele frequency for masking")
	fs.BoolVar(&flags.includeMissingMafs, "include-missing-mafs", false, "mask variants with no derivable MAF")

	fs.StringVar(&flags.primer3Exe, "primer3", "primer3_core", "path to primer3_core")
	fs.StringVar(&flags.bwaExe, "bwa", "bwa", "path to the interactive bwa build")
	fs.StringVar(&flags.bwaIndex, "bwa-index", "", "path to the bwa index (defaults to the reference)")
	fs.StringVar(&flags.ntthalExe, "ntthal", "ntthal", "path to ntthal")

	fs.IntVar(&flags.ampliconSizeMin, "amplicon-size-min", 100, "minimum amplicon size")
	fs.IntVar(&flags.ampliconSizeOpt, "amplicon-size-opt", 150, "optimal amplicon size")
	fs.IntVar(&flags.ampliconSizeMax, "amplicon-size-max", 250, "maximum amplicon size")
	fs.IntVar(&flags.numToReturn, "num-pairs", 5, "number of candidate pairs to request")
	fs.IntVar(&flags.maxDinucBases, "max-dinuc-bases", 6, "max bases in a dinucleotide repeat run")

	fs.IntVar(&flags.maxPrimerHits, "max-primer-hits", 250, "max genomic hits per primer")
	fs.IntVar(&flags.maxPrimerPairHits, "max-pair-hits", 1, "max predicted amplicons per pair")
	fs.IntVar(&flags.maxMismatches, "max-mismatches", 3, "max mismatches for off-target hits")
	fs.IntVar(&flags.seedLength, "seed-length", 20, "aligner seed length")

	fs.Float64Var(&flags.dimerTm, "dimer-tm", 45, "duplex Tm at or above which a pairing counts as a dimer")
	fs.StringVarP(&flags.out, "out", "o", "", "output BED file (default: stdout)")

	cobra.CheckErr(cmd.MarkFlagRequired("target"))
	cobra.CheckErr(cmd.MarkFlagRequired("reference"))

	return cmd
}

// applyConfig overlays settings persisted via `fgprimer config` onto every
// design flag the user left unset on the command line.
func applyConfig(cmd *cobra.Command, flags *designFlags) {
	overlay := func(name string, apply func()) {
		if viper.IsSet(name) && !cmd.Flags().Changed(name) {
			apply()
		}
	}

	overlay("min-maf", func() { flags.minMaf = viper.GetFloat64("min-maf") })
	overlay("include-missing-mafs", func() { flags.includeMissingMafs = viper.GetBool("include-missing-mafs") })
	overlay("variant-db", func() { flags.variantDB = viper.GetString("variant-db") })
	overlay("primer3", func() { flags.primer3Exe = viper.GetString("primer3") })
	overlay("bwa", func() { flags.bwaExe = viper.GetString("bwa") })
	overlay("bwa-index", func() { flags.bwaIndex = viper.GetString("bwa-index") })
	overlay("ntthal", func() { flags.ntthalExe = viper.GetString("ntthal") })
	overlay("amplicon-size-min", func() { flags.ampliconSizeMin = viper.GetInt("amplicon-size-min") })
	overlay("amplicon-size-opt", func() { flags.ampliconSizeOpt = viper.GetInt("amplicon-size-opt") })
	overlay("amplicon-size-max", func() { flags.ampliconSizeMax = viper.GetInt("amplicon-size-max") })
	overlay("num-pairs", func() { flags.numToReturn = viper.GetInt("num-pairs") })
	overlay("max-dinuc-bases", func() { flags.maxDinucBases = viper.GetInt("max-dinuc-bases") })
	overlay("max-primer-hits", func() { flags.maxPrimerHits = viper.GetInt("max-primer-hits") })
	overlay("max-pair-hits", func() { flags.maxPrimerPairHits = viper.GetInt("max-pair-hits") })
	overlay("max-mismatches", func() { flags.maxMismatches = viper.GetInt("max-mismatches") })
	overlay("seed-length", func() { flags.seedLength = viper.GetInt("seed-length") })
	overlay("dimer-tm", func() { flags.dimerTm = viper.GetFloat64("dimer-tm") })
}

func runDesign(flags *designFlags) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	target, err := parseTarget(flags.target)
	if err != nil {
		return err
	}

	logger.Info("loading reference", zap.String("path", flags.reference))
	seqs, err := genome.LoadFasta(flags.reference)
	if err != nil {
		return err
	}

	lookup, err := openVariantLookup(flags, logger)
	if err != nil {
		return err
	}
	if lookup != nil {
		defer lookup.Close()
	}

	params := primer3.DefaultParams()
	params.AmpliconSizes = primer3.IntRange{
		Min: flags.ampliconSizeMin,
		Opt: flags.ampliconSizeOpt,
		Max: flags.ampliconSizeMax,
	}
	params.NumToReturn = flags.numToReturn
	params.PrimerMaxDinucBases = flags.maxDinucBases
	if err := params.Validate(); err != nil {
		return err
	}

	driver, err := primer3.NewDriver(flags.primer3Exe, logger)
	if err != nil {
		return err
	}

	bwaIndex := flags.bwaIndex
	if bwaIndex == "" {
		bwaIndex = flags.reference
	}
	alignerOpts := bwa.DefaultOptions(flags.bwaExe, bwaIndex)
	alignerOpts.MaxMismatches = flags.maxMismatches
	alignerOpts.SeedLength = flags.seedLength
	alignerOpts.MaxHits = flags.maxPrimerHits
	aligner, err := bwa.NewAligner(alignerOpts, logger)
	if err != nil {
		driver.Close()
		return err
	}

	detector := offtarget.NewDetector(offtarget.Options{
		MaxPrimerHits:     flags.maxPrimerHits,
		MaxPrimerPairHits: flags.maxPrimerPairHits,
		MaxAmpliconSize:   flags.ampliconSizeMax,
		KeepAmplicons:     true,
	}, aligner, logger)

	dimers := ntthal.NewChecker(ntthal.DefaultOptions(flags.ntthalExe), logger)

	designer, err := design.NewDesigner(design.Config{
		Sequences:          seqs,
		Variants:           lookup,
		MinMaf:             flags.minMaf,
		IncludeMissingMafs: flags.includeMissingMafs,
		Params:             params,
		MaxDimerTm:         flags.dimerTm,
	}, driver, detector, dimers, logger)
	if err != nil {
		detector.Close()
		driver.Close()
		return err
	}
	defer designer.Close()

	result, err := designer.Design(target)
	if err != nil {
		return err
	}

	for _, fc := range result.Failures {
		logger.Info("picker rejections", zap.Stringer("reason", fc.Reason), zap.Int("count", fc.Count))
	}
	logger.Info("design complete",
		zap.String("target", target.String()),
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("rejected", len(result.Rejected)))

	return writeCandidates(flags.out, target, result)
}

// openVariantLookup picks the variant source: a prebuilt store, VCFs loaded
// into memory, or none.
func openVariantLookup(flags *designFlags, logger *zap.Logger) (variant.Lookup, error) {
	switch {
	case flags.variantDB != "":
		logger.Info("opening variant store", zap.String("path", flags.variantDB))
		return variant.OpenStore(flags.variantDB)
	case len(flags.vcfs) > 0:
		return variant.NewCachedLookup(flags.vcfs, logger)
	default:
		return nil, nil
	}
}

func writeCandidates(out string, target genome.Mapping, result *design.Result) error {
	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	bed := output.NewBedWriter(w)
	if err := bed.WriteHeader(fmt.Sprintf("fgprimer %s", target)); err != nil {
		return err
	}
	for i := range result.Candidates {
		pair := *result.Candidates[i].Pair
		pair.Name = fmt.Sprintf("%s_pair_%d", target, i+1)
		if err := bed.WritePair(&pair); err != nil {
			return err
		}
	}
	return bed.Flush()
}

// parseTarget parses "chrom:start-end" into a plus-strand mapping.
func parseTarget(s string) (genome.Mapping, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return genome.Mapping{}, fmt.Errorf("target %q is not chrom:start-end", s)
	}
	dash := strings.IndexByte(s[colon+1:], '-')
	if dash < 0 {
		return genome.Mapping{}, fmt.Errorf("target %q is not chrom:start-end", s)
	}
	start, err := strconv.Atoi(s[colon+1 : colon+1+dash])
	if err != nil {
		return genome.Mapping{}, fmt.Errorf("target start in %q: %w", s, err)
	}
	end, err := strconv.Atoi(s[colon+1+dash+1:])
	if err != nil {
		return genome.Mapping{}, fmt.Errorf("target end in %q: %w", s, err)
	}
	return genome.NewMapping(s[:colon], start, end, genome.Plus)
}

// newVariantDBCmd builds an on-disk variant store from VCFs.
func newVariantDBCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "variant-db <vcf> [vcf...]",
		Short: "Build an on-disk variant store for fast positional queries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if out == "" {
				out = viper.GetString("variant-db")
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			store, err := variant.BuildStore(out, args)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count()
			if err != nil {
				return err
			}
			logger.Info("variant store built", zap.String("path", out), zap.Int("variants", n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output database path")
	return cmd
}
