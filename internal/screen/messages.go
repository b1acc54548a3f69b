package screen

// StatusMsg updates the header's learner label and lesson counter. The app
// consumes it; screens never see it.
type StatusMsg struct {
	Learner   string
	Completed int
	Total     int
}

// ProgressChangedMsg tells the screen underneath that the ledger changed
// and its view should be reloaded.
type ProgressChangedMsg struct{}

// OpenLessonMsg asks the course map to open a lesson.
type OpenLessonMsg struct {
	LessonID string
}
