package global

import "testing"

func TestCustomValidators(t *testing.T) {
	InitValidator()

	type payload struct {
		Name      string `validate:"omitempty,no_xss"`
		Status    string `validate:"omitempty,consult_status"`
		Partition string `validate:"omitempty,month_key"`
	}

	cases := []struct {
		name    string
		input   payload
		wantErr bool
	}{
		{"hợp lệ đầy đủ", payload{Name: "Nguyễn Văn A", Status: "quote_given", Partition: "2025-11"}, false},
		{"rỗng toàn bộ vẫn hợp lệ", payload{}, false},
		{"tên chứa script tag", payload{Name: "<script>alert(1)</script>"}, true},
		{"tên chứa javascript scheme", payload{Name: "javascript:void(0)"}, true},
		{"status ngoài enum", payload{Status: "banana"}, true},
		{"needs_admin hợp lệ ở tầng ứng dụng", payload{Status: "needs_admin"}, false},
		{"partition tháng 13", payload{Partition: "2025-13"}, true},
		{"partition thiếu số 0", payload{Partition: "2025-1"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate.Struct(&tc.input)
			if tc.wantErr && err == nil {
				t.Errorf("input %+v phải bị từ chối", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("input %+v phải hợp lệ, lỗi: %v", tc.input, err)
			}
		})
	}
}
