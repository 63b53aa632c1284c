package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Course{},
		&Enrollment{},
		&Assignment{},
		&Submission{},
		&AttendanceRecord{},
		&CourseFile{},
	}
}
