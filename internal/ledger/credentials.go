package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"smart_travel/internal/common"
)

// ResolveCredentialsJSON resolve service account JSON qua chuỗi fallback theo thứ tự:
//  1. file key trên đĩa (credentialsFile)
//  2. blob là JSON literal
//  3. blob là JSON đã encode base64
//  4. blob là JSON với newline bị escape thành \n (hay gặp khi paste private key vào env)
//
// Không fail-fast ở stage đầu tiên bị lỗi - stage sau vẫn có thể thành công.
// Chỉ khi tất cả stage đều fail mới trả lỗi, kèm danh sách stage đã thử.
func ResolveCredentialsJSON(ctx context.Context, credentialsFile string, blob string) ([]byte, error) {
	var attempts []string

	// Stage 1: file key trên đĩa
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err == nil {
			if _, credErr := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope); credErr == nil {
				return data, nil
			} else {
				attempts = append(attempts, fmt.Sprintf("file %s: %v", credentialsFile, credErr))
			}
		} else {
			attempts = append(attempts, fmt.Sprintf("file %s: %v", credentialsFile, err))
		}
	} else {
		attempts = append(attempts, "file: không cấu hình SHEET_CREDENTIALS_FILE")
	}

	if blob == "" {
		attempts = append(attempts, "blob: SHEET_CREDENTIALS trống")
		return nil, credentialError(attempts)
	}

	// Stage 2: JSON literal
	trimmed := strings.TrimSpace(blob)
	if json.Valid([]byte(trimmed)) {
		if _, err := google.CredentialsFromJSON(ctx, []byte(trimmed), sheets.SpreadsheetsScope); err == nil {
			return []byte(trimmed), nil
		} else {
			attempts = append(attempts, fmt.Sprintf("json literal: %v", err))
		}
	} else {
		attempts = append(attempts, "json literal: không phải JSON hợp lệ")
	}

	// Stage 3: base64
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && json.Valid(decoded) {
		if _, credErr := google.CredentialsFromJSON(ctx, decoded, sheets.SpreadsheetsScope); credErr == nil {
			return decoded, nil
		} else {
			attempts = append(attempts, fmt.Sprintf("base64: %v", credErr))
		}
	} else {
		attempts = append(attempts, "base64: decode thất bại hoặc kết quả không phải JSON")
	}

	// Stage 4: JSON với newline bị escape
	unescaped := strings.ReplaceAll(trimmed, `\n`, "\n")
	if json.Valid([]byte(unescaped)) {
		if _, err := google.CredentialsFromJSON(ctx, []byte(unescaped), sheets.SpreadsheetsScope); err == nil {
			return []byte(unescaped), nil
		} else {
			attempts = append(attempts, fmt.Sprintf("escaped newline: %v", err))
		}
	} else {
		attempts = append(attempts, "escaped newline: không phải JSON hợp lệ")
	}

	return nil, credentialError(attempts)
}

// credentialError tạo lỗi AuthParse kèm danh sách các stage đã thử
func credentialError(attempts []string) error {
	return fmt.Errorf("%w: đã thử %d cách: %s",
		common.ErrCredentialParse, len(attempts), strings.Join(attempts, "; "))
}
