package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/thetatoken/hashchain/common"
)

// Block represents a block in chain.
type Block struct {
	Index     uint64       `json:"index"`
	Timestamp int64        `json:"timestamp"`
	Data      common.Bytes `json:"data"`
	PrevHash  string       `json:"prevHash"`
	Hash      string       `json:"hash"`
	Nonce     uint64       `json:"nonce"`
}

// NewBlock creates a new Block with a zero nonce and its hash already computed.
func NewBlock(index uint64, timestamp int64, data common.Bytes, prevHash string) *Block {
	b := &Block{
		Index:     index,
		Timestamp: timestamp,
		Data:      data,
		PrevHash:  prevHash,
	}
	b.UpdateHash()
	return b
}

func (b *Block) String() string {
	if b == nil {
		return "nil"
	}
	return fmt.Sprintf("Block{Index: %v, Timestamp: %v, Data: %q, PrevHash: %v, Hash: %v, Nonce: %v}",
		b.Index, b.Timestamp, string(b.Data), b.PrevHash, b.Hash, b.Nonce)
}

// CalculateHash returns the digest of the block's current fields.
func (b *Block) CalculateHash() string {
	return CalculateHash(b.Index, b.Timestamp, b.Data, b.PrevHash, b.Nonce)
}

// UpdateHash recalculate hash of block.
func (b *Block) UpdateHash() string {
	b.Hash = b.CalculateHash()
	return b.Hash
}

// HasValidHash checks that the stored hash matches the block content.
func (b *Block) HasValidHash() bool {
	return b.Hash == b.CalculateHash()
}

// CalculateHash is the SHA-256 digest, hex encoded, of the given block fields.
func CalculateHash(index uint64, timestamp int64, data common.Bytes, prevHash string, nonce uint64) string {
	sum := sha256.Sum256(encodeHashInput(index, timestamp, data, prevHash, nonce))
	return hex.EncodeToString(sum[:])
}

// encodeHashInput lays out the fields big-endian, with variable length fields
// length-prefixed so that distinct blocks never share an encoding.
func encodeHashInput(index uint64, timestamp int64, data common.Bytes, prevHash string, nonce uint64) []byte {
	buf := make([]byte, 0, 8*5+len(data)+len(prevHash))
	buf = appendUint64(buf, index)
	buf = appendUint64(buf, uint64(timestamp))
	buf = appendUint64(buf, uint64(len(data)))
	buf = append(buf, data...)
	buf = appendUint64(buf, uint64(len(prevHash)))
	buf = append(buf, prevHash...)
	buf = appendUint64(buf, nonce)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
