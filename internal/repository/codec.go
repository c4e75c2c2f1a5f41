package repository

import (
	"fmt"

	"registro/attendance/internal/model"
)

// Statuses are stored as small integer codes. The mapping lives only at this
// boundary; the ledger and report packages never see the codes.
const (
	codePresent   int16 = 0
	codeLate      int16 = 1
	codeAbsent    int16 = 2
	codeJustified int16 = 3
)

const (
	codeFather int16 = 0
	codeMother int16 = 1
	codeOther  int16 = 2
)

func encodeDailyStatus(status model.DailyStatus) (int16, error) {
	switch status {
	case model.StatusPresent:
		return codePresent, nil
	case model.StatusLate:
		return codeLate, nil
	case model.StatusAbsent:
		return codeAbsent, nil
	case model.StatusJustified:
		return codeJustified, nil
	}
	return 0, fmt.Errorf("unknown daily status %q", status)
}

func decodeDailyStatus(code int16) (model.DailyStatus, error) {
	switch code {
	case codePresent:
		return model.StatusPresent, nil
	case codeLate:
		return model.StatusLate, nil
	case codeAbsent:
		return model.StatusAbsent, nil
	case codeJustified:
		return model.StatusJustified, nil
	}
	return "", fmt.Errorf("unknown daily status code %d", code)
}

func encodeRelation(relation model.FamilyRelation) (int16, error) {
	switch relation {
	case model.RelationFather:
		return codeFather, nil
	case model.RelationMother:
		return codeMother, nil
	case model.RelationOther:
		return codeOther, nil
	}
	return 0, fmt.Errorf("unknown family relation %q", relation)
}

func decodeRelation(code int16) (model.FamilyRelation, error) {
	switch code {
	case codeFather:
		return model.RelationFather, nil
	case codeMother:
		return model.RelationMother, nil
	case codeOther:
		return model.RelationOther, nil
	}
	return "", fmt.Errorf("unknown family relation code %d", code)
}
