package services

import "testing"

func TestGenerateOTPRange(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP error: %v", err)
		}
		if otp < 100000 || otp > 999999 {
			t.Fatalf("otp out of range: %d", otp)
		}
	}
}
