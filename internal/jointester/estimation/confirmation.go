package estimation

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	maxRecordsThreshold = 1_000_000
	maxSizeThreshold    = 1024 * 1024 * 1024 // 1GB
)

var p = message.NewPrinter(language.English)

func ShouldPrompt(est Estimation) bool {
	return est.TotalRecords > maxRecordsThreshold || est.EstimatedBytes > maxSizeThreshold
}

// Display writes a summary of est to out.
func Display(est Estimation, out io.Writer) {
	p.Fprintln(out, "=================================================================")
	p.Fprintln(out, "Join Corpus Estimation")
	p.Fprintln(out, "=================================================================")
	p.Fprintf(out, "Body records:          %d\n", est.Bodies)
	p.Fprintf(out, "Instance records:      %d\n", est.Instances)
	p.Fprintf(out, "Total records:         %d\n", est.TotalRecords)
	p.Fprintf(out, "Batches:               %d (%d records each)\n", est.Batches, est.RecordsPerBatch)
	p.Fprintf(out, "Estimated index size:  %s\n", FormatBytes(est.EstimatedBytes))
	p.Fprintf(out, "Index backend:         %s (%d senders)\n", est.Backend, est.SenderConcurrency)
	p.Fprintf(out, "Child mode:            %s\n", est.ChildMode)
	p.Fprintf(out, "Commit within:         %s\n", est.CommitWithin)
	p.Fprintln(out, "=================================================================")
}

// DisplayEstimationAndConfirm shows est and asks the operator whether to proceed. Only "y" or "yes"
// confirms; anything else, including end of input, declines.
func DisplayEstimationAndConfirm(est Estimation, in io.Reader, out io.Writer) (bool, error) {
	Display(est, out)
	p.Fprintln(out)
	p.Fprint(out, "This run will index a large amount of data. Proceed? (y/N): ")

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errors.Wrap(err, "reading user input")
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
