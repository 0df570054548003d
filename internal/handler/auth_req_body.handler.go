package handler

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type SocialConnectRequest struct {
	Provider string `json:"provider"`
}

type SocialDisconnectRequest struct {
	Provider string `json:"provider"`
}

type StepUpVerifyRequest struct {
	Method          string `json:"method"`
	TOTPCode        string `json:"totp_code"`
	BackupCode      string `json:"backup_code"`
	CurrentPassword string `json:"currentPassword"`
}
