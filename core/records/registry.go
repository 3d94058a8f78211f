package records

// Builtin describes every list-backed resource of the dashboard. All of
// them share the same CRUD shape; only key, required fields and searchable
// columns differ.
var Builtin = []Descriptor{
	{
		Name:       "attendance",
		KeyField:   "id",
		Required:   []string{"student_id", "attendance_date", "status"},
		DateFields: []string{"attendance_date"},
		Searchable: []string{"student_id", "status", "class", "section"},
	},
	{
		Name:       "leaves",
		KeyField:   "id",
		Required:   []string{"student_id", "start_date", "end_date", "reason"},
		DateFields: []string{"start_date", "end_date"},
		Searchable: []string{"student_id", "reason", "status"},
	},
	{
		Name:       "achievements",
		KeyField:   "id",
		Required:   []string{"student_id", "title", "type", "date"},
		DateFields: []string{"date"},
		Searchable: []string{"student_id", "title", "type"},
	},
	{
		Name:       "certificates",
		KeyField:   "id",
		Required:   []string{"student_id", "certificate_name", "issuing_organization", "issue_date"},
		DateFields: []string{"issue_date"},
		Searchable: []string{"student_id", "certificate_name", "issuing_organization"},
	},
	{
		Name:       "exams",
		KeyField:   "id",
		Required:   []string{"class", "subject", "exam_date"},
		DateFields: []string{"exam_date"},
		Searchable: []string{"class", "subject", "exam_name"},
	},
	{
		Name:       "report-cards",
		KeyField:   "id",
		Required:   []string{"student_id", "academic_year", "term_semester"},
		Searchable: []string{"student_id", "academic_year", "term_semester"},
	},
	{
		Name:       "diary",
		KeyField:   "id",
		Required:   []string{"class", "section", "subject", "date", "homework"},
		DateFields: []string{"date"},
		Searchable: []string{"class", "subject", "homework"},
	},
	{
		Name:       "study-materials",
		KeyField:   "id",
		Required:   []string{"class", "subject", "title", "link"},
		Searchable: []string{"class", "subject", "title"},
	},
	{
		Name:       "video-classes",
		KeyField:   "id",
		Required:   []string{"class", "subject", "title", "video_link"},
		Searchable: []string{"class", "subject", "title"},
	},
	{
		Name:       "timetables",
		KeyField:   "id",
		Required:   []string{"class", "section", "link"},
		Searchable: []string{"class", "section"},
	},
	{
		Name:       "orders",
		KeyField:   "id",
		Required:   []string{"student_id", "item", "type", "date"},
		DateFields: []string{"date"},
		Searchable: []string{"student_id", "item", "type"},
	},
	{
		Name:       "announcements",
		KeyField:   "id",
		Required:   []string{"title", "message", "type"},
		Searchable: []string{"title", "message", "type"},
	},
	{
		Name:       "feedback",
		KeyField:   "id",
		Required:   []string{"category", "message"},
		Searchable: []string{"category", "message"},
	},
	{
		// holidays key on their date; the client supplies it
		Name:       "holidays",
		KeyField:   "date",
		NaturalKey: true,
		Required:   []string{"date", "name", "type"},
		DateFields: []string{"date"},
		Searchable: []string{"name", "type"},
	},
}
