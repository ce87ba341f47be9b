package momo

import (
	"testing"

	"github.com/karibuapp/payout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "already_normalized",
			raw:  "255744123456",
			want: "255744123456",
		},
		{
			name: "local_form_with_leading_zero",
			raw:  "0744123456",
			want: "255744123456",
		},
		{
			name: "international_with_plus_and_spaces",
			raw:  "+255 744 123 456",
			want: "255744123456",
		},
		{
			name: "local_form_with_dashes",
			raw:  "0744-123-456",
			want: "255744123456",
		},
		{
			name: "bare_subscriber_number",
			raw:  "744123456",
			want: "255744123456",
		},
		{
			name: "airtel_number",
			raw:  "0684123456",
			want: "255684123456",
		},
		{
			name:    "too_short",
			raw:     "0744",
			wantErr: models.ErrInvalidPhone,
		},
		{
			name:    "letters",
			raw:     "O744123456",
			wantErr: models.ErrInvalidPhone,
		},
		{
			name:    "unknown_operator_prefix",
			raw:     "0944123456",
			wantErr: models.ErrInvalidPhone,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: models.ErrInvalidPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperatorHint(t *testing.T) {
	tests := []struct {
		name   string
		msisdn string
		want   string
	}{
		{
			// default family, provider auto-detects from prefix
			name:   "vodacom_no_hint",
			msisdn: "255744123456",
			want:   "",
		},
		{
			name:   "airtel",
			msisdn: "255684123456",
			want:   "airtel",
		},
		{
			name:   "tigo",
			msisdn: "255654123456",
			want:   "tigo",
		},
		{
			name:   "halopesa",
			msisdn: "255624123456",
			want:   "halopesa",
		},
		{
			name:   "not_normalized",
			msisdn: "0744123456",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OperatorHint(tt.msisdn))
		})
	}
}
