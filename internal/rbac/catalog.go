package rbac

// Permission codes. Codes are stable identifiers of the form
// "<resource>.<action>"; handlers and middleware reference these constants
// rather than raw strings.
const (
	PermSchoolsViewList           = "schools.view_list"
	PermSchoolsCreateEditDelete   = "schools.create_edit_delete"
	PermSchoolsSettings           = "schools.settings"
	PermAcademicYearsCRUD         = "academic_years.crud"
	PermStaffViewCreateEdit       = "staff.view_create_edit"
	PermStudentsViewList          = "students.view_list"
	PermStudentsCreateImportExport = "students.create_import_export"
	PermScheduleAdminManage       = "schedule.admin_manage"
	PermScheduleTeacherView       = "schedule.teacher_view"
	PermJournalGradesFeedback     = "journal.grades_feedback"
	PermGradesViewOwn             = "grades.view_own"
	PermAttendanceOpenCloseMark   = "attendance.open_close_mark"
	PermAttendanceViewOwn         = "attendance.view_own"
	PermAttendanceViewChildren    = "attendance.view_children"
	PermCertificatesTemplatesCRUD = "certificates.templates_crud"
	PermCertificatesIssue         = "certificates.issue"
	PermCertificatesViewOwn       = "certificates.view_own"
	PermUsersListEditRoles        = "users.list_edit_roles"
	PermNavDashboard              = "nav.dashboard"
	PermNavProfile                = "nav.profile"
	PermNavJournal                = "nav.journal"
	PermNavScheduleTeacher        = "nav.schedule_teacher"
	PermNavAttendanceTeacher      = "nav.attendance_teacher"
	PermNavSchools                = "nav.schools"
	PermNavSchoolSettings         = "nav.school_settings"
	PermNavScheduleAdmin          = "nav.schedule_admin"
	PermNavImportExport           = "nav.import_export"
	PermNavParentOverview         = "nav.parent_overview"
	PermNavCertificates           = "nav.certificates"
	PermPermissionsManage         = "permissions.manage"
	PermImportExportStudents      = "import_export.students"
)

// CatalogEntry is a seed record for the permission catalog.
type CatalogEntry struct {
	Code     string
	Name     string
	Resource string
	Action   string
}

// Catalog returns the full permission catalog used by the seeder. The catalog
// is the single source of truth for valid permission codes.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{PermSchoolsViewList, "View school list", "schools", "view_list"},
		{PermSchoolsCreateEditDelete, "Create, edit and delete schools", "schools", "create_edit_delete"},
		{PermSchoolsSettings, "School settings page", "schools", "settings"},
		{PermAcademicYearsCRUD, "Manage academic years", "academic_years", "crud"},
		{PermStaffViewCreateEdit, "View, create and edit staff", "staff", "view_create_edit"},
		{PermStudentsViewList, "View student list", "students", "view_list"},
		{PermStudentsCreateImportExport, "Create, import and export students", "students", "create_import_export"},
		{PermScheduleAdminManage, "Manage schedule builder and conflicts", "schedule", "admin_manage"},
		{PermScheduleTeacherView, "View own teaching schedule", "schedule", "teacher_view"},
		{PermJournalGradesFeedback, "Record grades and feedback", "journal", "grades_feedback"},
		{PermGradesViewOwn, "View own grades", "grades", "view_own"},
		{PermAttendanceOpenCloseMark, "Open and close lessons, mark attendance", "attendance", "open_close_mark"},
		{PermAttendanceViewOwn, "View own attendance", "attendance", "view_own"},
		{PermAttendanceViewChildren, "View children's attendance", "attendance", "view_children"},
		{PermCertificatesTemplatesCRUD, "Manage certificate templates", "certificates", "templates_crud"},
		{PermCertificatesIssue, "Issue certificates", "certificates", "issue"},
		{PermCertificatesViewOwn, "View own certificates", "certificates", "view_own"},
		{PermUsersListEditRoles, "List users and edit roles", "users", "list_edit_roles"},
		{PermNavDashboard, "Dashboard", "nav", "dashboard"},
		{PermNavProfile, "Own profile", "nav", "profile"},
		{PermNavJournal, "Journal (teacher)", "nav", "journal"},
		{PermNavScheduleTeacher, "Schedule (teacher)", "nav", "schedule_teacher"},
		{PermNavAttendanceTeacher, "Attendance (teacher)", "nav", "attendance_teacher"},
		{PermNavSchools, "Schools", "nav", "schools"},
		{PermNavSchoolSettings, "School settings", "nav", "school_settings"},
		{PermNavScheduleAdmin, "Schedule (admin)", "nav", "schedule_admin"},
		{PermNavImportExport, "Import and export", "nav", "import_export"},
		{PermNavParentOverview, "Overview (parent)", "nav", "parent_overview"},
		{PermNavCertificates, "Certificates", "nav", "certificates"},
		{PermPermissionsManage, "Manage role permissions", "permissions", "manage"},
		{PermImportExportStudents, "Import and export students", "import_export", "students"},
	}
}

// DefaultRoleGrants is the initial role-permission matrix applied by the
// seeder. Runtime grants live in the database and may diverge from this map.
func DefaultRoleGrants() map[Role][]string {
	return map[Role][]string{
		RoleSuperAdmin: {
			PermSchoolsViewList, PermSchoolsCreateEditDelete, PermAcademicYearsCRUD, PermStaffViewCreateEdit,
			PermStudentsViewList, PermStudentsCreateImportExport, PermScheduleAdminManage, PermScheduleTeacherView,
			PermJournalGradesFeedback, PermAttendanceOpenCloseMark, PermCertificatesTemplatesCRUD, PermCertificatesIssue,
			PermUsersListEditRoles, PermNavDashboard, PermNavProfile, PermNavSchools, PermNavScheduleAdmin,
			PermNavImportExport, PermNavCertificates, PermPermissionsManage, PermImportExportStudents,
		},
		RoleSchoolAdmin: {
			PermSchoolsViewList, PermSchoolsCreateEditDelete, PermAcademicYearsCRUD, PermStaffViewCreateEdit,
			PermStudentsViewList, PermStudentsCreateImportExport, PermScheduleAdminManage, PermScheduleTeacherView,
			PermJournalGradesFeedback, PermAttendanceOpenCloseMark, PermCertificatesTemplatesCRUD, PermCertificatesIssue,
			PermUsersListEditRoles, PermNavDashboard, PermNavProfile, PermNavSchools, PermNavScheduleAdmin,
			PermNavImportExport, PermNavCertificates, PermImportExportStudents,
		},
		RoleDirector: {
			PermSchoolsViewList, PermSchoolsSettings, PermAcademicYearsCRUD, PermScheduleAdminManage, PermScheduleTeacherView,
			PermJournalGradesFeedback, PermAttendanceOpenCloseMark, PermCertificatesIssue,
			PermNavDashboard, PermNavProfile, PermNavSchoolSettings, PermNavScheduleAdmin, PermNavImportExport,
			PermNavCertificates, PermImportExportStudents,
		},
		RoleTeacher: {
			PermScheduleTeacherView, PermJournalGradesFeedback, PermAttendanceOpenCloseMark, PermCertificatesIssue,
			PermNavDashboard, PermNavProfile, PermNavJournal, PermNavScheduleTeacher, PermNavAttendanceTeacher, PermNavCertificates,
		},
		RoleStudent: {
			PermGradesViewOwn, PermAttendanceViewOwn, PermCertificatesViewOwn,
			PermNavDashboard, PermNavProfile,
		},
		RoleParent: {
			PermAttendanceViewChildren, PermCertificatesViewOwn,
			PermNavDashboard, PermNavProfile, PermNavParentOverview,
		},
		RoleRegistrar: {
			PermScheduleAdminManage,
			PermNavDashboard, PermNavProfile, PermNavScheduleAdmin,
		},
		RoleScheduler: {
			PermScheduleAdminManage,
			PermNavDashboard, PermNavProfile, PermNavScheduleAdmin,
		},
	}
}
