package domain

// OrganType enumerates the organ kinds the system allocates.
type OrganType string

const (
	OrganHeart  OrganType = "Heart"
	OrganLiver  OrganType = "Liver"
	OrganLungs  OrganType = "Lungs"
	OrganKidney OrganType = "Kidney"
	OrganEye    OrganType = "Eye"
)

func (o OrganType) Valid() bool {
	switch o {
	case OrganHeart, OrganLiver, OrganLungs, OrganKidney, OrganEye:
		return true
	}
	return false
}

// BloodGroup is the internal 8-value blood group enum.
type BloodGroup string

const (
	BloodAPos  BloodGroup = "A_POS"
	BloodANeg  BloodGroup = "A_NEG"
	BloodBPos  BloodGroup = "B_POS"
	BloodBNeg  BloodGroup = "B_NEG"
	BloodABPos BloodGroup = "AB_POS"
	BloodABNeg BloodGroup = "AB_NEG"
	BloodOPos  BloodGroup = "O_POS"
	BloodONeg  BloodGroup = "O_NEG"
)

var bloodGroupNotation = map[string]BloodGroup{
	"A+":  BloodAPos,
	"A-":  BloodANeg,
	"B+":  BloodBPos,
	"B-":  BloodBNeg,
	"AB+": BloodABPos,
	"AB-": BloodABNeg,
	"O+":  BloodOPos,
	"O-":  BloodONeg,
}

// ParseBloodGroup converts human notation like "A+" to the internal enum.
// Values already in enum form pass through unchanged.
func ParseBloodGroup(s string) (BloodGroup, bool) {
	if bg, ok := bloodGroupNotation[s]; ok {
		return bg, true
	}
	bg := BloodGroup(s)
	return bg, bg.Valid()
}

func (b BloodGroup) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// OrganStatus tracks a donated organ through its lifecycle.
type OrganStatus string

const (
	OrganPendingConsent OrganStatus = "PENDING_CONSENT"
	OrganAvailable      OrganStatus = "AVAILABLE"
	OrganReserved       OrganStatus = "RESERVED"
	OrganAllocated      OrganStatus = "ALLOCATED"
	OrganTransplanted   OrganStatus = "TRANSPLANTED"
	OrganExpired        OrganStatus = "EXPIRED"
)

// RequestStatus tracks an organ request.
type RequestStatus string

const (
	RequestWaiting             RequestStatus = "WAITING"
	RequestMatched             RequestStatus = "MATCHED"
	RequestPendingConfirmation RequestStatus = "PENDING_CONFIRMATION"
	RequestTransplanted        RequestStatus = "TRANSPLANTED"
	RequestCancelled           RequestStatus = "CANCELLED"
)

// AllocationStatus tracks an allocation. The allowed transitions live in
// internal/allocation/state; nothing else may decide legality.
type AllocationStatus string

const (
	AllocationPendingConfirmation AllocationStatus = "PENDING_CONFIRMATION"
	AllocationMatched             AllocationStatus = "MATCHED"
	AllocationCompleted           AllocationStatus = "COMPLETED"
	AllocationFailed              AllocationStatus = "FAILED"
)

// ConsentType distinguishes living donation from post-death donation.
type ConsentType string

const (
	ConsentLiving    ConsentType = "LIVING"
	ConsentPostDeath ConsentType = "POST_DEATH"
)

// ConsentStatus tracks a consent record. Only status may change after creation.
type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "PENDING"
	ConsentVerified ConsentStatus = "VERIFIED"
	ConsentRevoked  ConsentStatus = "REVOKED"
)

// Role identifies the kind of acting user.
type Role string

const (
	RoleDonor  Role = "DONOR"
	RoleDoctor Role = "DOCTOR"
	RoleAdmin  Role = "ADMIN"
)

// RiskLevel and Recommendation band a match score against the organ's safe
// transport distance.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

type Recommendation string

const (
	RecommendationRecommended      Recommendation = "RECOMMENDED"
	RecommendationAcceptable       Recommendation = "ACCEPTABLE"
	RecommendationRisky            Recommendation = "RISKY"
	RecommendationInsufficientData Recommendation = "INSUFFICIENT_DATA"
)
