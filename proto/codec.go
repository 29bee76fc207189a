// Package proto TraderService 的 gRPC 介面定義
//
// 訊息以 JSON 編碼 (content-subtype "json")，金額一律是十進位字串，
// 呼叫端不需要 protoc 產生的程式碼。
package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName gRPC content-subtype: application/grpc+json
const CodecName = "json"

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec 以 encoding/json 編解碼訊息
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return CodecName
}
