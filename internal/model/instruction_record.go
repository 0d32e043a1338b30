package model

import (
	"encoding/json"
)

// InstructionRecord is one journal line describing an executed instruction.
type InstructionRecord struct {
	Instruction string            `json:"instruction"`
	Pool        string            `json:"pool,omitempty"`
	Payer       string            `json:"payer,omitempty"`
	Args        map[string]string `json:"args,omitempty"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	TotalShares uint64            `json:"total_shares"`
	ReserveOne  uint64            `json:"reserve_one"`
	ReserveTwo  uint64            `json:"reserve_two"`
	Sequence    uint64            `json:"sequence"`
	ExecutedAt  string            `json:"executed_at"`
}

// MarshalJSON ensures InstructionRecord is encoded with stable field names.
func (ir InstructionRecord) MarshalJSON() ([]byte, error) {
	type Alias InstructionRecord
	return json.Marshal(Alias(ir))
}

// UnmarshalJSON decodes an InstructionRecord from JSON.
func (ir *InstructionRecord) UnmarshalJSON(data []byte) error {
	type Alias InstructionRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*ir = InstructionRecord(a)
	return nil
}
