package enums

import "fmt"

// KYCStatus maps to the kyc_status enum in Postgres.
type KYCStatus string

const (
	KYCStatusPending     KYCStatus = "PENDING"
	KYCStatusUnderReview KYCStatus = "UNDER_REVIEW"
	KYCStatusApproved    KYCStatus = "APPROVED"
	KYCStatusRejected    KYCStatus = "REJECTED"
)

// KYCStatusNotStarted is a presentation-only value for vendors with no
// record yet. It is never persisted.
const KYCStatusNotStarted KYCStatus = "NOT_STARTED"

var validKYCStatuses = []KYCStatus{
	KYCStatusPending,
	KYCStatusUnderReview,
	KYCStatusApproved,
	KYCStatusRejected,
}

// String implements fmt.Stringer.
func (s KYCStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical kyc_status enum.
func (s KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseKYCStatus converts raw input into KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kyc status %q", value)
}

// DocumentType maps to the kyc_document_type enum in Postgres.
type DocumentType string

const (
	DocumentTypeCNIC     DocumentType = "CNIC"
	DocumentTypePassport DocumentType = "PASSPORT"
	DocumentTypeLicense  DocumentType = "LICENSE"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeCNIC,
	DocumentTypePassport,
	DocumentTypeLicense,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value matches the canonical kyc_document_type enum.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
