package model

import (
	"bytes"
	"encoding/json"
)

// Nullable 区分“未提供”“显式 null”“有值”三种状态，用于 PATCH 请求
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some 构造有值的 Nullable
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null 构造显式 null
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// IsNull 显式传入 null
func (n Nullable[T]) IsNull() bool {
	return n.Set && n.Value == nil
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
