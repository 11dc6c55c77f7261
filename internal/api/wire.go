package api

import "github.com/verte-zerg/typerace/internal/model"

// Header names carrying client identity.
const (
	HeaderParticipantID   = "X-Participant-Id"
	HeaderParticipantName = "X-Participant-Name"
	HeaderOrganizerToken  = "X-Organizer-Token"
)

// JumbleWordJSON is a jumbled word on the wire.
type JumbleWordJSON struct {
	Scrambled string `json:"scrambled"`
	Answer    string `json:"answer"`
}

// CompetitionResponse is the initial load payload.
type CompetitionResponse struct {
	Title         string           `json:"title"`
	Mode          string           `json:"mode"`
	Text          string           `json:"text"`
	Jumble        []JumbleWordJSON `json:"jumble,omitempty"`
	Duration      int              `json:"duration"`
	TimeRemaining int              `json:"time_remaining"`
	Status        string           `json:"status"`
}

// SubmitRequest is the submit-results body.
type SubmitRequest struct {
	WPM               float64 `json:"wpm"`
	Accuracy          float64 `json:"accuracy"`
	TimeTaken         float64 `json:"time_taken"`
	TotalKeystrokes   int     `json:"total_keystrokes"`
	CorrectKeystrokes int     `json:"correct_keystrokes"`
	RepeatCount       int     `json:"repeat_count"`
}

// ActionResponse answers submit-results and the organizer actions.
type ActionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResultJSON is one standings row.
type ResultJSON struct {
	ParticipantID   string  `json:"participant_id"`
	ParticipantName string  `json:"participant_name"`
	WPM             float64 `json:"wpm"`
	Accuracy        float64 `json:"accuracy"`
}

// ResultsResponse is the fetch-results payload.
type ResultsResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Results []ResultJSON `json:"results"`
}

// StatusResponse is the competition-status payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// NewSubmitRequest converts a submission to its wire form.
func NewSubmitRequest(s model.Submission) SubmitRequest {
	return SubmitRequest{
		WPM:               s.WPM,
		Accuracy:          s.Accuracy,
		TimeTaken:         s.TimeTaken,
		TotalKeystrokes:   s.TotalKeystrokes,
		CorrectKeystrokes: s.CorrectKeystrokes,
		RepeatCount:       s.RepeatCount,
	}
}

// Submission converts the wire form back to the model.
func (r SubmitRequest) Submission() model.Submission {
	return model.Submission{
		WPM:               r.WPM,
		Accuracy:          r.Accuracy,
		TimeTaken:         r.TimeTaken,
		TotalKeystrokes:   r.TotalKeystrokes,
		CorrectKeystrokes: r.CorrectKeystrokes,
		RepeatCount:       r.RepeatCount,
	}
}

// Descriptor validates and converts the load payload.
func (c CompetitionResponse) Descriptor() (model.Descriptor, error) {
	mode, err := model.ParseMode(c.Mode)
	if err != nil {
		return model.Descriptor{}, err
	}
	status, err := model.ParseStatus(c.Status)
	if err != nil {
		return model.Descriptor{}, err
	}
	jumble := make([]model.JumbleWord, 0, len(c.Jumble))
	for _, w := range c.Jumble {
		jumble = append(jumble, model.JumbleWord{Scrambled: w.Scrambled, Answer: w.Answer})
	}
	return model.Descriptor{
		Title:     c.Title,
		Mode:      mode,
		Text:      c.Text,
		Jumble:    jumble,
		Duration:  c.Duration,
		Remaining: c.TimeRemaining,
		Status:    status,
	}, nil
}

// NewCompetitionResponse converts a descriptor to its wire form.
func NewCompetitionResponse(d model.Descriptor) CompetitionResponse {
	jumble := make([]JumbleWordJSON, 0, len(d.Jumble))
	for _, w := range d.Jumble {
		jumble = append(jumble, JumbleWordJSON{Scrambled: w.Scrambled, Answer: w.Answer})
	}
	return CompetitionResponse{
		Title:         d.Title,
		Mode:          string(d.Mode),
		Text:          d.Text,
		Jumble:        jumble,
		Duration:      d.Duration,
		TimeRemaining: d.Remaining,
		Status:        string(d.Status),
	}
}

// Standings converts result rows to the model.
func (r ResultsResponse) Standings() []model.Standing {
	out := make([]model.Standing, 0, len(r.Results))
	for _, row := range r.Results {
		out = append(out, model.Standing{
			ParticipantID:   row.ParticipantID,
			ParticipantName: row.ParticipantName,
			WPM:             row.WPM,
			Accuracy:        row.Accuracy,
		})
	}
	return out
}
