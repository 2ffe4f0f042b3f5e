package dto

import "time"

// ShareReportResponse is returned after a guardian copy has been stored.
type ShareReportResponse struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Filename    string    `json:"filename"`
}
