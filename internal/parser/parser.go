package parser

import (
	"bytes"
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mcncl/jsontree/internal/errors" // Custom errors package
	"github.com/mcncl/jsontree/internal/models"
)

// Parse decodes a single JSON value from reader, keeping object members in
// source order. Numbers keep their literal text.
func Parse(reader io.Reader) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a single JSON value from data.
func ParseBytes(data []byte) (models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber() // Ensure numbers are read as json.Number

	root, err := decodeValue(decoder)
	if err != nil {
		return models.Document{}, positionedError(data, decoder, err)
	}

	// Anything other than whitespace after the root is an error. A second
	// complete value gets its own message.
	if _, err := decoder.Token(); err == nil {
		return models.Document{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	} else if !stderrors.Is(err, io.EOF) {
		line, col := lineColumn(data, decoder.InputOffset())
		return models.Document{}, errors.NewParsingErrorAt("invalid trailing data after first JSON value", line, col, errors.ErrInvalidJSON)
	}

	return models.Document{Root: root, Size: int64(len(data))}, nil
}

func decodeValue(decoder *json.Decoder) (models.Value, error) {
	tok, err := decoder.Token()
	if err != nil {
		return models.Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return models.NullValue(), nil
	case bool:
		return models.BoolValue(t), nil
	case json.Number:
		return models.NumberValue(t), nil
	case string:
		return models.StringValue(t), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		}
		return models.Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	default:
		return models.Value{}, fmt.Errorf("unexpected json token type: %T", t)
	}
}

func decodeObject(decoder *json.Decoder) (models.Value, error) {
	members := []models.Member{}
	// Duplicate keys keep their first position and their last value.
	index := make(map[string]int)

	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return models.Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return models.Value{}, fmt.Errorf("object key is %T, not a string", tok)
		}

		value, err := decodeValue(decoder)
		if err != nil {
			return models.Value{}, err
		}

		if i, seen := index[key]; seen {
			members[i].Value = value
			continue
		}
		index[key] = len(members)
		members = append(members, models.Member{Key: key, Value: value})
	}

	// Consume the closing '}'
	if _, err := decoder.Token(); err != nil {
		return models.Value{}, err
	}
	return models.ObjectValue(members...), nil
}

func decodeArray(decoder *json.Decoder) (models.Value, error) {
	items := []models.Value{}
	for decoder.More() {
		item, err := decodeValue(decoder)
		if err != nil {
			return models.Value{}, err
		}
		items = append(items, item)
	}

	// Consume the closing ']'
	if _, err := decoder.Token(); err != nil {
		return models.Value{}, err
	}
	return models.ArrayValue(items...), nil
}

// positionedError converts a decoding failure into a parsing error that
// carries the line and column of the failure.
func positionedError(data []byte, decoder *json.Decoder, err error) error {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		line, col := lineColumn(data, syntaxError.Offset)
		return errors.NewParsingErrorAt(
			fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxError.Offset, syntaxError.Error()),
			line, col,
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		line, col := lineColumn(data, int64(len(data)))
		return errors.NewParsingErrorAt("unexpected end of JSON input", line, col, errors.ErrInvalidJSON)
	}
	line, col := lineColumn(data, decoder.InputOffset())
	return errors.NewParsingErrorAt("failed to decode JSON", line, col, err)
}

// lineColumn returns the 1-based line and column of the byte offset.
func lineColumn(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 0 {
		offset = 0
	}
	prefix := data[:offset]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	lastLine := prefix
	if i := bytes.LastIndexByte(prefix, '\n'); i >= 0 {
		lastLine = prefix[i+1:]
	}
	return line, utf8.RuneCount(lastLine) + 1
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Document, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Document{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseBytes([]byte(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file)
}
