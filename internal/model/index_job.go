package model

// IndexJob asks the index worker to (re)index a stored transcript.
type IndexJob struct {
	TranscriptID   string `json:"transcript_id"`
	CourseName     string `json:"course_name"`
	WeekNumber     *int   `json:"week_number"`
	TranscriptName string `json:"transcript_name"`
}
