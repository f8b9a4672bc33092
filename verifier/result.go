package verifier

// Verdict is the final send decision for one address. Exactly one verdict
// is produced per address per classification call.
type Verdict string

const (
	OkayToSend Verdict = "okay_to_send"
	DoNotSend  Verdict = "do_not_send"
	MaybeSend  Verdict = "maybe_send"
)

// Reason is a machine-stable tag explaining the verdict. The Detail field
// of a Result carries the human-readable part (typo suggestions etc.).
type Reason string

const (
	ReasonInvalidSyntax       Reason = "invalid_syntax"
	ReasonTypo                Reason = "typo"
	ReasonDisposable          Reason = "disposable"
	ReasonBlacklisted         Reason = "blacklisted"
	ReasonNoMX                Reason = "no_mx"
	ReasonCatchAll            Reason = "catch_all"
	ReasonCatchAllUnconfirmed Reason = "catch_all_unconfirmed"
	ReasonAccepted            Reason = "accepted"
)

// Policy selects how uncertain probe outcomes map to verdicts. Strict
// treats catch-all and unconfirmed domains as non-sendable, lenient
// downgrades them to MaybeSend.
type Policy string

const (
	PolicyStrict  Policy = "strict"
	PolicyLenient Policy = "lenient"
)

// Result is the outcome of classifying a single address.
type Result struct {
	Email       string  `json:"email"`
	Verdict     Verdict `json:"verdict"`
	Reason      Reason  `json:"reason"`
	Detail      string  `json:"detail,omitempty"`
	RoleAccount bool    `json:"role_account,omitempty"`
}

// BatchProgress is emitted once per completed address during ClassifyBatch.
type BatchProgress struct {
	Done   int    `json:"done"`
	Total  int    `json:"total"`
	Result Result `json:"result"`
}
