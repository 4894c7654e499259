package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login guard outcomes
const (
	OperationInitiateLogin = "initiate_login"
	OperationVerifyOTP     = "verify_otp"
	OperationResendOTP     = "resend_otp"
)

var (
	LoginGuardOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskvault_login_guard_outcomes_total",
			Help: "Login guard operation outcomes by operation and result",
		},
		[]string{"operation", "outcome"},
	)

	AccountLockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskvault_account_lockouts_total",
			Help: "Accounts locked after reaching the failed login limit",
		},
	)

	OTPDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskvault_otp_dispatch_duration_seconds",
			Help:    "Time spent handing a one-time code to the notification transport",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"status"},
	)

	OTPChallengesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskvault_otp_challenges_purged_total",
			Help: "Expired one-time code challenges removed",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskvault_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskvault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
