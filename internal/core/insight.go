package core

import "fmt"

// CategoryInsight names the top category of an already ranked table.
// A non-empty scope, such as "In the selected period", opens the sentence.
func CategoryInsight(rows []CategoryTotal, scope string) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}
	if scope == "" {
		return fmt.Sprintf("%s is the largest revenue contributor.", rows[0].Category), true
	}
	return fmt.Sprintf("%s, %s is the largest revenue contributor.", scope, rows[0].Category), true
}

// TopState returns the state with the most customers. The earliest row wins ties.
func TopState(rows []StateConcentration) (StateConcentration, bool) {
	if len(rows) == 0 {
		return StateConcentration{}, false
	}
	return SortStatesDesc(rows)[0], true
}

// StateInsight names the state with the highest customer concentration.
func StateInsight(rows []StateConcentration) (string, bool) {
	top, ok := TopState(rows)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("State %s has the highest customer concentration at the end of 2018.", top.State), true
}
