package dto

// AgendaExportQuery selects the window and format for a doctor agenda export.
type AgendaExportQuery struct {
	DoctorID  string `json:"doctorId" validate:"required"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Format    string `json:"format" validate:"required,oneof=csv pdf"`
}

// AgendaExportResult carries the rendered document.
type AgendaExportResult struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}
