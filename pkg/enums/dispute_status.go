package enums

import "fmt"

// DisputeStatus tracks the chargeback mini state machine: none -> opened -> won|lost.
type DisputeStatus string

const (
	DisputeStatusNone   DisputeStatus = "none"
	DisputeStatusOpened DisputeStatus = "opened"
	DisputeStatusWon    DisputeStatus = "won"
	DisputeStatusLost   DisputeStatus = "lost"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusNone,
	DisputeStatusOpened,
	DisputeStatusWon,
	DisputeStatusLost,
}

func (d DisputeStatus) String() string {
	return string(d)
}

func (d DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}
