package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobharvest/internal/domain"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "thuong luong", Fold("Thương Lượng"))
	assert.Equal(t, "thoa thuan", Fold("THOẢ THUẬN"))
	assert.Equal(t, "da nang", Fold("Đà Nẵng"))
	assert.Equal(t, "khong yeu cau", Fold("Không yêu cầu"))
	assert.Equal(t, "10 - 15 trieu", Fold("10 – 15 triệu"))
	assert.Equal(t, "2-4 nam", Fold("2−4 năm"))
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"10-15 triệu", domain.Ptr(12.5), false},
		{"10 – 15 triệu", domain.Ptr(12.5), false},
		{"10—15 triệu", domain.Ptr(12.5), false},
		{"10 − 15 triệu", domain.Ptr(12.5), false},
		{"Trên 20 triệu", domain.Ptr(20.0), false},
		{"Tới 1.5 Triệu", domain.Ptr(1.5), false},
		{"Thương lượng", nil, false},
		{"THỎA THUẬN", nil, false},
		{"Thoả thuận", nil, false},
		{"Cạnh tranh", nil, false},
		{"", nil, false},
		{"Liên hệ", nil, false},
		{"12000000", domain.Ptr(12000000.0), false},
		{"10-15-20 triệu", nil, true},
		{"1.2.3 triệu", nil, true},
		{"- triệu", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSalary(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseSalaryUSD(t *testing.T) {
	got, err := ParseSalary("15000 usd")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 15000*USDToMillionVND, *got, 1e-9)

	got, err = ParseSalary("1,000 - 1,500 USD")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 1250*USDToMillionVND, *got, 1e-9)
}

func TestParseExp(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"Không yêu cầu", domain.Ptr(0.0), false},
		{"Không cần kinh nghiệm", domain.Ptr(0.0), false},
		{"2-4 năm", domain.Ptr(3.0), false},
		{"2 – 4 năm", domain.Ptr(3.0), false},
		{"1‒3 năm", domain.Ptr(2.0), false},
		{"Trên 5 năm", domain.Ptr(5.0), false},
		{"Dưới 1 năm", domain.Ptr(1.0), false},
		{"1.5 năm", domain.Ptr(1.5), false},
		{"Chưa có", nil, false},
		{"", nil, false},
		{"1-2-3 năm", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExp(tt.in)
			assert.Equal(t, tt.wantErr, err != nil, "err=%v", err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"Hà Nội, Việt Nam", domain.Ptr("Hà Nội")},
		{"TP HCM & Đà Nẵng", domain.Ptr("TP HCM")},
		{"A, B & C", domain.Ptr("A, B")},
		{"  Hồ Chí Minh  ", domain.Ptr("Hồ Chí Minh")},
		{"Hồ Chí Minh & 2 nơi khác", domain.Ptr("Hồ Chí Minh")},
		{"   ", nil},
		{"& Hà Nội", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Location(tt.in), tt.in)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		in   *string
		want *string
	}{
		{nil, nil},
		{domain.Ptr(""), nil},
		{domain.Ptr("Nhân viên / Chuyên viên"), domain.Ptr("Nhân viên/Chuyên viên")},
		{domain.Ptr(" IT , Phần mềm / , Web "), domain.Ptr("IT/Phần mềm/Web")},
		{domain.Ptr("Tài chính,Ngân hàng"), domain.Ptr("Tài chính/Ngân hàng")},
		{domain.Ptr("Senior"), domain.Ptr("Senior")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(tt.in))
	}
}
