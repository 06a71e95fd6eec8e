// Package simulate drives concurrent evaluations against a running service
// and checks the audit log afterwards.
package simulate

import (
	"errors"
	"time"
)

// Test number range: +61400500800 to +61400500999.
const (
	NumberPrefix = "+61400500"
	FirstNumber  = 800
	LastNumber   = 999
)

// Defaults.
const (
	DefaultCount     = 200
	DefaultWorkers   = 16
	DefaultTimeout   = 30 * time.Second
	DefaultStepUp    = 35
	DefaultReject    = 70
	scoreTolerance   = 0.01
	readyMaxAttempts = 10
	historyLimit     = 1000
)

// ErrVerification is returned when the audit log disagrees with the run.
var ErrVerification = errors.New("verification failed")

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Count       int           // Number of evaluations to submit
	Identifiers int           // Distinct numbers used, at most 200
	Workers     int           // Concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Generator seed; 0 picks one from the clock
	StepUp      float64       // Decision thresholds used to check results
	Reject      float64
}

func (c *Config) defaults() {
	if c.Count <= 0 {
		c.Count = DefaultCount
	}
	span := LastNumber - FirstNumber + 1
	if c.Identifiers <= 0 || c.Identifiers > span {
		c.Identifiers = span
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.StepUp <= 0 {
		c.StepUp = DefaultStepUp
	}
	if c.Reject <= 0 {
		c.Reject = DefaultReject
	}
}

// Transaction is one generated evaluation request.
type Transaction struct {
	RequestID        string  `json:"request_id"`
	TransactionID    string  `json:"transaction_id"`
	Identifier       string  `json:"identifier"`
	Amount           float64 `json:"amount"`
	ModelProbability float64 `json:"model_probability"`
	Merchant         string  `json:"merchant"`
	PaymentMethod    string  `json:"payment_method"`
	Timestamp        string  `json:"timestamp"`
}

// Result is the part of an evaluation response the run checks.
type Result struct {
	TransactionID  string  `json:"transaction_id"`
	Identifier     string  `json:"identifier"`
	RecordID       string  `json:"record_id"`
	Decision       string  `json:"decision"`
	FinalScore     float64 `json:"final_score"`
	WeightedScore  float64 `json:"weighted_score"`
	ConditionScore float64 `json:"condition_score"`
	APIMode        string  `json:"api_mode"`
	Audited        bool    `json:"audited"`
}

// Report summarizes a run.
type Report struct {
	Submitted  int            `json:"submitted"`
	Audited    int            `json:"audited"`
	Unaudited  int            `json:"unaudited"`
	Failed     int            `json:"failed"`
	ByDecision map[string]int `json:"by_decision"`
	Violations []string       `json:"violations,omitempty"`
	Duration   time.Duration  `json:"duration"`
}
