package attributes

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

// NoFewKey is the few_id shared by every record outside the few partition.
const NoFewKey = "none"

var (
	//go:embed words/common.txt
	commonWordsFile []byte
	//go:embed words/english.txt
	englishWordsFile []byte
	//go:embed words/sources.txt
	sourceCodesFile []byte
)

// Generator supplies scalar field values for generated records.
type Generator interface {
	CommonWord() (string, error)
	EnglishWord() (string, error)
	// GroupKey returns a low cardinality key shared by a minority of records.
	GroupKey() (string, error)
	Date() (time.Time, error)
	// BoundedInt returns a value in [0, max).
	BoundedInt(max int) (int, error)
	SourceCode() (string, error)
	LatLon() (model.LatLon, error)
	// Separator is placed between consecutive words of a text blob.
	Separator() string
	// FormatNumber renders n with grouped digits, e.g. 1,234,567.
	FormatNumber(n int64) string
}

// WordLists is a Generator drawing from embedded word lists with a seeded source, so two runs with the same
// seed and configuration produce the same values.
type WordLists struct {
	rng            *rand.Rand
	common         []string
	english        []string
	englishZipf    *rand.Zipf
	sources        []string
	fewFraction    float64
	fewCardinality int
	earliest       time.Time
	spanSeconds    int64
	printer        *message.Printer
}

func NewWordLists(config configuration.AttributesConfig, seed int64) (*WordLists, error) {
	earliest, err := config.Earliest()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	latest, err := config.Latest()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if config.FewCardinality <= 0 {
		return nil, errors.Errorf("few cardinality must be positive, got %d", config.FewCardinality)
	}

	common, err := readWords("common", commonWordsFile)
	if err != nil {
		return nil, err
	}
	english, err := readWords("english", englishWordsFile)
	if err != nil {
		return nil, err
	}
	sources, err := readWords("sources", sourceCodesFile)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	return &WordLists{
		rng:     rng,
		common:  common,
		english: english,
		// Rank/frequency of English words roughly follows Zipf's law.
		englishZipf:    rand.NewZipf(rng, 1.1, 1, uint64(len(english)-1)),
		sources:        sources,
		fewFraction:    config.FewFraction,
		fewCardinality: config.FewCardinality,
		earliest:       earliest,
		// LatestDate is inclusive.
		spanSeconds: int64(latest.Sub(earliest)/time.Second) + 24*60*60,
		printer:     message.NewPrinter(language.English),
	}, nil
}

func readWords(name string, data []byte) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if word := bytes.TrimSpace(scanner.Bytes()); len(word) > 0 {
			words = append(words, string(word))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s word list", name)
	}
	if len(words) == 0 {
		return nil, errors.Errorf("%s word list is empty", name)
	}
	return words, nil
}

func (w *WordLists) CommonWord() (string, error) {
	return w.common[w.rng.Intn(len(w.common))], nil
}

func (w *WordLists) EnglishWord() (string, error) {
	return w.english[w.englishZipf.Uint64()], nil
}

func (w *WordLists) GroupKey() (string, error) {
	if w.rng.Float64() >= w.fewFraction {
		return NoFewKey, nil
	}
	return fmt.Sprintf("few_%04d", w.rng.Intn(w.fewCardinality)), nil
}

func (w *WordLists) Date() (time.Time, error) {
	offset := w.rng.Int63n(w.spanSeconds)
	return w.earliest.Add(time.Duration(offset) * time.Second), nil
}

func (w *WordLists) BoundedInt(max int) (int, error) {
	if max <= 0 {
		return 0, errors.Errorf("bound must be positive, got %d", max)
	}
	return w.rng.Intn(max), nil
}

func (w *WordLists) SourceCode() (string, error) {
	return w.sources[w.rng.Intn(len(w.sources))], nil
}

func (w *WordLists) LatLon() (model.LatLon, error) {
	return model.LatLon{
		Lat: w.rng.Float64()*180 - 90,
		Lon: w.rng.Float64()*360 - 180,
	}, nil
}

func (w *WordLists) Separator() string {
	return " "
}

func (w *WordLists) FormatNumber(n int64) string {
	return FormatNumber(w.printer, n)
}

// FormatNumber renders n with the digit grouping of printer's language.
func FormatNumber(printer *message.Printer, n int64) string {
	return printer.Sprintf("%d", n)
}
