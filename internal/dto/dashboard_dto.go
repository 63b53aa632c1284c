package dto

// AssignmentStatusCounts tallies a student's assignments by derived status.
type AssignmentStatusCounts struct {
	Pending   int `json:"pending"`
	Submitted int `json:"submitted"`
	Graded    int `json:"graded"`
	Overdue   int `json:"overdue"`
}

// StudentDashboardResponse is the landing payload for students.
type StudentDashboardResponse struct {
	EnrolledCourses int                    `json:"enrolled_courses"`
	Assignments     AssignmentStatusCounts `json:"assignments"`
	Grades          GradeSummaryResponse   `json:"grades"`
	Upcoming        []AssignmentResponse   `json:"upcoming"`
}

// TeacherDashboardResponse is the landing payload for teachers.
type TeacherDashboardResponse struct {
	Courses          []CourseCardResponse `json:"courses"`
	TotalCourses     int                  `json:"total_courses"`
	TotalStudents    int64                `json:"total_students"`
	TotalAssignments int64                `json:"total_assignments"`
	PendingGrading   int                  `json:"pending_grading"`
}
