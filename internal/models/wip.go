package models

// Wip is a work-in-process record for one chip or sheet.
type Wip struct {
	ChipID  string `json:"chipId" msgpack:"chipId"`
	Grade   string `json:"grade" msgpack:"grade"`
	ModelNo string `json:"modelNo" msgpack:"modelNo"`
	StageID string `json:"stageId" msgpack:"stageId"`
	OpID    string `json:"opId" msgpack:"opId"`
}

// Cassette is a carrier of WIP items sitting at a position inside a bin.
type Cassette struct {
	CassetteID string `json:"cassetteId" msgpack:"cassetteId"`
	Position   int    `json:"position" msgpack:"position"`
	Wips       []Wip  `json:"wips" msgpack:"wips"`
}
