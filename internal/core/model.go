package core

import (
	"time"
)

// Message represents a single monitored communication
type Message struct {
	ID             string
	Sender         string
	Recipient      string
	CC             []string
	Subject        string
	Body           string
	SentAt         time.Time
	SenderGroup    string
	RecipientGroup string
}

// Compliance labels assigned by the classifier or the deep analyzer
const (
	LabelClean                 = "CLEAN"
	LabelInsiderTrading        = "INSIDER_TRADING"
	LabelConfidentialityBreach = "CONFIDENTIALITY_BREACH"
	LabelPersonalTrading       = "PERSONAL_TRADING"
	LabelInfoBarrierViolation  = "INFO_BARRIER_VIOLATION"
	LabelUnspecifiedHighRisk   = "UNSPECIFIED_HIGH_RISK"
	LabelPendingReview         = "PENDING_REVIEW"
)

// Decision is the three-way routing outcome of the cheap classifier
type Decision string

const (
	DecisionAutoClear Decision = "AUTO_CLEAR"
	DecisionEscalate  Decision = "ESCALATE"
	DecisionAutoFlag  Decision = "AUTO_FLAG"
)

// VerdictSource identifies which stage produced a verdict
type VerdictSource string

const (
	SourceML     VerdictSource = "ML"
	SourceLLM    VerdictSource = "LLM"
	SourceExempt VerdictSource = "EXEMPT"
)

// RiskFeatures maps a feature name to its scalar value.
// Similarity-derived features are bounded to [-1, 1].
type RiskFeatures map[string]float64

// Verdict is the current classification outcome for a message
type Verdict struct {
	MessageID  string
	Label      string
	Confidence float64
	Source     VerdictSource
	Rationale  string
	DecidedAt  time.Time
}

// DeepAnalysis is the structured result returned by the deep-reasoning analyzer
type DeepAnalysis struct {
	Label      string
	Confidence float64
	Rationale  string
}

// BatchItem is the per-message outcome of a batch triage run
type BatchItem struct {
	MessageID string
	Verdict   *Verdict
	Err       error
}

// Neighbor is a single hit from a similarity query
type Neighbor struct {
	MessageID string
	Score     float64
	Label     string
}
