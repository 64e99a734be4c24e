package constant

type CheckInStatus string

const (
	StatusCheckedIn  CheckInStatus = "checked-in"
	StatusCheckedOut CheckInStatus = "checked-out"
)

func (s CheckInStatus) String() string {
	return string(s)
}

type RecordKind string

const (
	RecordKindEmployee RecordKind = "employee"
	RecordKindVisitor  RecordKind = "visitor"
)

func (k RecordKind) String() string {
	return string(k)
}

// FetchErrorKind classifies why a video fetch attempt did not store anything,
// so callers can tell retryable failures from non-retryable ones.
type FetchErrorKind string

const (
	FetchErrorRateLimited FetchErrorKind = "rate_limited"
	FetchErrorEmptyResult FetchErrorKind = "empty_result"
	FetchErrorProvider    FetchErrorKind = "provider_error"
	FetchErrorStorage     FetchErrorKind = "storage_error"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
