package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smart_travel/internal/common"
)

func TestResolveCredentialsJSON_KhongCauHinh(t *testing.T) {
	_, err := ResolveCredentialsJSON(context.Background(), "", "")
	if err == nil {
		t.Fatal("không có file lẫn blob thì phải trả lỗi")
	}
	if !errors.Is(err, common.ErrCredentialParse) {
		t.Errorf("lỗi phải wrap ErrCredentialParse, nhận %v", err)
	}
}

func TestResolveCredentialsJSON_LietKeCacCachDaThu(t *testing.T) {
	// Blob rác: không phải JSON, không phải base64 của JSON
	_, err := ResolveCredentialsJSON(context.Background(), "/duong/dan/khong/ton/tai.json", "rác rưởi")
	if err == nil {
		t.Fatal("blob không parse được theo cách nào thì phải trả lỗi")
	}

	msg := err.Error()
	for _, stage := range []string{"file", "json literal", "base64", "escaped newline"} {
		if !strings.Contains(msg, stage) {
			t.Errorf("message lỗi phải liệt kê stage %q đã thử, nhận: %s", stage, msg)
		}
	}
}

func TestResolveCredentialsJSON_JsonSaiSchema(t *testing.T) {
	// JSON hợp lệ nhưng không phải credential Google chấp nhận
	_, err := ResolveCredentialsJSON(context.Background(), "", `{"type":"không tồn tại"}`)
	if err == nil {
		t.Fatal("JSON không phải credential hợp lệ thì phải trả lỗi")
	}
	if !errors.Is(err, common.ErrCredentialParse) {
		t.Errorf("lỗi phải wrap ErrCredentialParse, nhận %v", err)
	}
}
