package domain

// VerifyDeviceRequest pairs a device with an employee identity.
type VerifyDeviceRequest struct {
	EmpNo    string `json:"emp_no" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// VerifyDeviceResponse is returned by a successful device verification.
type VerifyDeviceResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type,omitempty"`
	User        UserProfile `json:"user"`
}

// ScanResult is returned by a successful QR-scan authorization.
type ScanResult struct {
	Status   string      `json:"status,omitempty"`
	Message  string      `json:"message,omitempty"`
	LogID    int64       `json:"log_id,omitempty"`
	AuthTime string      `json:"auth_time"`
	User     UserProfile `json:"user"`
}

// AuthStatus is the body of a successful session status check.
type AuthStatus struct {
	Status string      `json:"status"`
	User   UserProfile `json:"user"`
}
