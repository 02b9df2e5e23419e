// internal/domain/models/site.go
package models

// DefaultSiteName is shown in page headers and email footers.
const DefaultSiteName = "NSS BloodConnect"
