package types

// WorkItem is one block of work logged against an SDC record.
type WorkItem struct {
	ID          string `json:"id"`
	WorkType    string `json:"workType"`
	StartTime   string `json:"startTime"` // HH:mm
	EndTime     string `json:"endTime"`   // HH:mm
	Description string `json:"description,omitempty"`
}

// Record is a tracked SDC entry. Timestamps are epoch milliseconds.
type Record struct {
	ID              string     `json:"id"`
	Date            string     `json:"date"` // yyyy-MM-dd
	SponsorID       string     `json:"sponsorId"`
	CenterID        string     `json:"centerId"`
	InvestigatorID  string     `json:"investigatorId"`
	ProjectCodeID   string     `json:"projectCodeId"`
	PatientCode     string     `json:"patientCode"`
	WorkDone        []WorkItem `json:"workDone"`
	CreatorID       string     `json:"creatorId"`
	CreatorUsername string     `json:"creatorUsername,omitempty"`
	CreatedAt       int64      `json:"createdAt"`
	UpdatedAt       int64      `json:"updatedAt"`
}
