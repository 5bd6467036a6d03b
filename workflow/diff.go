package workflow

import (
	"sort"
	"strings"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"github.com/pmezard/go-difflib/difflib"
)

// NoBaselinePlaceholder is the previous output shown for a host first seen
// today.
const NoBaselinePlaceholder = "No data found for previous date"

// Compare produces the day-over-day verdict for one host from its current and
// previous day rows.
//
// Outputs are compared trimmed, per command, over the union of both days'
// commands in lexicographic order; any difference makes the host an error.
// With revealUnchanged=false only changed commands are returned, which is what
// the summary paths use; revealUnchanged=true returns every command, which is
// what the host diff view uses. A host with no previous rows is a success
// ("no baseline yet"); with revealUnchanged=true its commands are emitted with
// a placeholder previous output and no diff content. If any current row is
// already validated the verdict is forced to success; the diff list is not
// touched. No side effects.
func Compare(currentRows []*models.ChecklistEntry, previousRows []*models.ChecklistEntry, revealUnchanged bool) (bool, []*models.CommandDiff) {

	currentOutputs := make(map[string]string, len(currentRows))
	for _, row := range currentRows {
		currentOutputs[row.Command] = row.Output
	}
	previousOutputs := make(map[string]string, len(previousRows))
	for _, row := range previousRows {
		previousOutputs[row.Command] = row.Output
	}

	validated := false
	for _, row := range currentRows {
		if row.IsValidated {
			validated = true
			break
		}
	}

	if len(previousRows) == 0 {
		diffs := make([]*models.CommandDiff, 0, len(currentOutputs))
		if revealUnchanged {
			commands := make([]string, 0, len(currentOutputs))
			for command := range currentOutputs {
				commands = append(commands, command)
			}
			sort.Strings(commands)
			for _, command := range commands {
				diffs = append(diffs, &models.CommandDiff{
					Command:        command,
					CurrentOutput:  currentOutputs[command],
					PreviousOutput: NoBaselinePlaceholder,
				})
			}
		}
		return true, diffs
	}

	commands := make([]string, 0, len(currentOutputs)+len(previousOutputs))
	for command := range currentOutputs {
		commands = append(commands, command)
	}
	for command := range previousOutputs {
		if _, ok := currentOutputs[command]; !ok {
			commands = append(commands, command)
		}
	}
	sort.Strings(commands)

	isSuccess := true
	diffs := make([]*models.CommandDiff, 0)
	for _, command := range commands {
		currentOutput := currentOutputs[command]
		previousOutput := previousOutputs[command]

		changed := strings.TrimSpace(currentOutput) != strings.TrimSpace(previousOutput)
		if changed {
			isSuccess = false
		}
		if !changed && !revealUnchanged {
			continue
		}

		diff := &models.CommandDiff{
			Command:        command,
			CurrentOutput:  currentOutput,
			PreviousOutput: previousOutput,
			HasChanged:     changed,
		}
		if changed {
			diff.DiffContent = renderUnifiedDiff(previousOutput, currentOutput)
		}
		diffs = append(diffs, diff)
	}

	if validated {
		isSuccess = true
	}
	return isSuccess, diffs
}

func renderUnifiedDiff(previousOutput string, currentOutput string) string {
	text, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previousOutput),
		B:        difflib.SplitLines(currentOutput),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	})
	return text
}
