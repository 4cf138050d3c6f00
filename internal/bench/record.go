package bench

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jamesainslie/go-nereval/score"
)

// Record files are a stream of varint length-prefixed protobuf messages:
//
//	message Sentence {
//	  string id = 1;
//	  repeated int64 gold = 2 [packed = true];
//	  repeated int64 pred = 3 [packed = true];
//	  int64 length = 4;
//	  repeated string gold_tags = 5;
//	  repeated string pred_tags = 6;
//	  repeated Subject gold_spans = 7;
//	  repeated Subject pred_spans = 8;
//	}
//	message Subject { int64 type_id = 1; int64 start = 2; int64 end = 3; }
const (
	fieldID        protowire.Number = 1
	fieldGold      protowire.Number = 2
	fieldPred      protowire.Number = 3
	fieldLength    protowire.Number = 4
	fieldGoldTags  protowire.Number = 5
	fieldPredTags  protowire.Number = 6
	fieldGoldSpans protowire.Number = 7
	fieldPredSpans protowire.Number = 8

	fieldSubjectType  protowire.Number = 1
	fieldSubjectStart protowire.Number = 2
	fieldSubjectEnd   protowire.Number = 3
)

// maxRecordSize bounds a single encoded sentence.
const maxRecordSize = 64 << 20

// WriteRecords encodes sentences as a length-prefixed record stream.
func WriteRecords(w io.Writer, sentences []Sentence) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for i, s := range sentences {
		msg := marshalSentence(s)
		buf = protowire.AppendVarint(buf[:0], uint64(len(msg)))
		buf = append(buf, msg...)
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadRecords decodes a length-prefixed record stream.
func ReadRecords(r io.Reader) ([]Sentence, error) {
	br := bufio.NewReader(r)
	var sentences []Sentence
	for {
		size, err := binary.ReadUvarint(br)
		if errors.Is(err, io.EOF) {
			return sentences, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: read length: %w", len(sentences), err)
		}
		if size > maxRecordSize {
			return nil, fmt.Errorf("record %d: size %d exceeds limit", len(sentences), size)
		}
		msg := make([]byte, size)
		if _, err := io.ReadFull(br, msg); err != nil {
			return nil, fmt.Errorf("record %d: read body: %w", len(sentences), err)
		}
		s, err := unmarshalSentence(msg)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(sentences), err)
		}
		sentences = append(sentences, s)
	}
}

func marshalSentence(s Sentence) []byte {
	var b []byte
	if s.ID != "" {
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendString(b, s.ID)
	}
	b = appendPacked(b, fieldGold, s.Gold)
	b = appendPacked(b, fieldPred, s.Pred)
	if s.Length != 0 {
		b = protowire.AppendTag(b, fieldLength, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(s.Length)))
	}
	for _, t := range s.GoldTags {
		b = protowire.AppendTag(b, fieldGoldTags, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	for _, t := range s.PredTags {
		b = protowire.AppendTag(b, fieldPredTags, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	for _, sub := range s.GoldSpans {
		b = protowire.AppendTag(b, fieldGoldSpans, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalSubject(sub))
	}
	for _, sub := range s.PredSpans {
		b = protowire.AppendTag(b, fieldPredSpans, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalSubject(sub))
	}
	return b
}

func appendPacked(b []byte, num protowire.Number, values []int) []byte {
	if len(values) == 0 {
		return b
	}
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendVarint(packed, uint64(int64(v)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func marshalSubject(sub score.Subject) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldSubjectType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(sub.TypeID)))
	b = protowire.AppendTag(b, fieldSubjectStart, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(sub.Start)))
	b = protowire.AppendTag(b, fieldSubjectEnd, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(sub.End)))
	return b
}

func unmarshalSentence(b []byte) (Sentence, error) {
	var s Sentence
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Sentence{}, protowire.ParseError(n)
		}
		b = b[n:]

		var err error
		switch {
		case num == fieldID && typ == protowire.BytesType:
			s.ID, n = protowire.ConsumeString(b)
		case (num == fieldGold || num == fieldPred) && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				if num == fieldGold {
					s.Gold, err = consumePacked(s.Gold, packed)
				} else {
					s.Pred, err = consumePacked(s.Pred, packed)
				}
			}
		case (num == fieldGold || num == fieldPred) && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if num == fieldGold {
				s.Gold = append(s.Gold, int(int64(v)))
			} else {
				s.Pred = append(s.Pred, int(int64(v)))
			}
		case num == fieldLength && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			s.Length = int(int64(v))
		case num == fieldGoldTags && typ == protowire.BytesType:
			var t string
			t, n = protowire.ConsumeString(b)
			s.GoldTags = append(s.GoldTags, t)
		case num == fieldPredTags && typ == protowire.BytesType:
			var t string
			t, n = protowire.ConsumeString(b)
			s.PredTags = append(s.PredTags, t)
		case (num == fieldGoldSpans || num == fieldPredSpans) && typ == protowire.BytesType:
			var msg []byte
			msg, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				var sub score.Subject
				if sub, err = unmarshalSubject(msg); err == nil {
					if num == fieldGoldSpans {
						s.GoldSpans = append(s.GoldSpans, sub)
					} else {
						s.PredSpans = append(s.PredSpans, sub)
					}
				}
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Sentence{}, fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		if err != nil {
			return Sentence{}, fmt.Errorf("field %d: %w", num, err)
		}
		b = b[n:]
	}
	return s, nil
}

func consumePacked(dst []int, b []byte) ([]int, error) {
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		dst = append(dst, int(int64(v)))
		b = b[n:]
	}
	return dst, nil
}

func unmarshalSubject(b []byte) (score.Subject, error) {
	var sub score.Subject
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return score.Subject{}, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
		} else {
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			switch num {
			case fieldSubjectType:
				sub.TypeID = int(int64(v))
			case fieldSubjectStart:
				sub.Start = int(int64(v))
			case fieldSubjectEnd:
				sub.End = int(int64(v))
			}
		}
		if n < 0 {
			return score.Subject{}, protowire.ParseError(n)
		}
		b = b[n:]
	}
	return sub, nil
}
