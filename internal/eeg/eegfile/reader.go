package eegfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/monitoring"
)

// SectionInfo summarizes one section for inspection tools.
type SectionInfo struct {
	Type   uint16
	Name   string
	Offset int64
	Length uint64
}

// FileInfo describes a container without loading its samples.
type FileInfo struct {
	Path         string
	FileID       uuid.UUID
	Version      int
	CreatedAt    time.Time
	SampleRate   float64
	NumChannels  int
	NumSamples   int
	BlockSamples int
	Channels     []eeg.Channel
	Bads         []string
	Sections     []SectionInfo
}

// container holds everything parsed from the fixed parts of a file.
type container struct {
	path       string
	size       int64
	hdr        fileHeader
	channels   []eeg.Channel
	bads       []string
	index      []indexEntry
	hasIndex   bool
	dataOffset int64 // first block header, 0 when no data section
	dataLen    int64
	sections   []SectionInfo
}

func formatErr(path, format string, args ...any) error {
	return &eeg.FileFormatError{Path: path, Err: fmt.Errorf(format, args...)}
}

func integrityErr(path, format string, args ...any) error {
	return &eeg.DataIntegrityError{Path: path, Detail: fmt.Sprintf(format, args...)}
}

// Load opens the .eegr container at path. With preload true the full sample
// matrix is read into memory and the file is closed before returning; with
// preload false the file stays open and windows are read on demand through
// the block index, so the caller must Close the Recording.
//
// A missing or unparseable file yields a FileFormatError; a parseable file
// whose sections contradict its header yields a DataIntegrityError.
func Load(path string, preload bool) (*eeg.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &eeg.FileFormatError{Path: path, Err: err}
	}

	c, err := parseContainer(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	if preload {
		data, err := readAllBlocks(f, c)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
		rec, err := eeg.NewPreloaded(c.channels, c.hdr.SampleRate, data)
		if err != nil {
			return nil, integrityErr(path, "%v", err)
		}
		return finishRecording(rec, c)
	}

	if !c.hasIndex {
		f.Close()
		return nil, formatErr(path, "windowed loading requires a block index section")
	}
	src := &Reader{
		f:     f,
		path:  path,
		nch:   int(c.hdr.NumChannels),
		index: c.index,
	}
	rec, err := eeg.NewStreamed(c.channels, c.hdr.SampleRate, int(c.hdr.NumSamples), src)
	if err != nil {
		f.Close()
		return nil, integrityErr(path, "%v", err)
	}
	return finishRecording(rec, c)
}

// Inspect parses the header, channel table, and section layout of a
// container without touching sample data.
func Inspect(path string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &eeg.FileFormatError{Path: path, Err: err}
	}
	defer f.Close()

	c, err := parseContainer(f, path)
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		Path:         path,
		FileID:       uuid.UUID(c.hdr.FileID),
		Version:      int(c.hdr.Version),
		CreatedAt:    time.Unix(0, c.hdr.CreatedNanos),
		SampleRate:   c.hdr.SampleRate,
		NumChannels:  int(c.hdr.NumChannels),
		NumSamples:   int(c.hdr.NumSamples),
		BlockSamples: int(c.hdr.BlockSamples),
		Channels:     c.channels,
		Bads:         c.bads,
		Sections:     c.sections,
	}, nil
}

func finishRecording(rec *eeg.Recording, c *container) (*eeg.Recording, error) {
	rec.ID = uuid.UUID(c.hdr.FileID)
	rec.Path = c.path
	rec.StartTime = time.Unix(0, c.hdr.CreatedNanos)
	if err := rec.SetBads(c.bads); err != nil {
		return nil, integrityErr(c.path, "%v", err)
	}
	return rec, nil
}

func parseContainer(f *os.File, path string) (*container, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, formatErr(path, "stat: %v", err)
	}
	c := &container{path: path, size: fi.Size()}

	if c.size < FILE_HEADER_SIZE {
		return nil, formatErr(path, "file is %d bytes, smaller than the %d-byte header", c.size, FILE_HEADER_SIZE)
	}
	if err := binary.Read(f, binary.LittleEndian, &c.hdr); err != nil {
		return nil, formatErr(path, "read file header: %v", err)
	}
	if string(c.hdr.Magic[:]) != MAGIC {
		return nil, formatErr(path, "bad magic %q, want %q", c.hdr.Magic[:], MAGIC)
	}
	if c.hdr.Version != FORMAT_VERSION {
		return nil, formatErr(path, "unsupported format version %d", c.hdr.Version)
	}
	if c.hdr.HeaderSize != FILE_HEADER_SIZE {
		return nil, formatErr(path, "header size %d, want %d", c.hdr.HeaderSize, FILE_HEADER_SIZE)
	}
	if c.hdr.NumChannels == 0 {
		return nil, formatErr(path, "channel count is zero")
	}
	if c.hdr.NumChannels > MAX_CHANNELS {
		return nil, formatErr(path, "channel count %d exceeds limit %d", c.hdr.NumChannels, MAX_CHANNELS)
	}
	if c.hdr.SampleRate <= 0 || math.IsNaN(c.hdr.SampleRate) || math.IsInf(c.hdr.SampleRate, 0) {
		return nil, formatErr(path, "invalid sampling rate %g", c.hdr.SampleRate)
	}
	if c.hdr.NumSamples > 1<<40 {
		return nil, formatErr(path, "implausible sample count %d", c.hdr.NumSamples)
	}

	nch := int(c.hdr.NumChannels)
	tableEnd := int64(FILE_HEADER_SIZE + CHANNEL_RECORD_SIZE*nch)
	if c.size < tableEnd {
		return nil, formatErr(path, "truncated channel table: file is %d bytes, table ends at %d", c.size, tableEnd)
	}

	c.channels = make([]eeg.Channel, nch)
	seen := make(map[string]bool, nch)
	for i := 0; i < nch; i++ {
		var rec channelRecord
		if err := binary.Read(f, binary.LittleEndian, &rec); err != nil {
			return nil, formatErr(path, "read channel record %d: %v", i, err)
		}
		name := rec.Name[:]
		if j := bytes.IndexByte(name, 0); j >= 0 {
			name = name[:j]
		}
		if len(name) == 0 {
			return nil, integrityErr(path, "channel %d has an empty name", i)
		}
		if seen[string(name)] {
			return nil, integrityErr(path, "duplicate channel name %q", name)
		}
		seen[string(name)] = true

		ch := eeg.Channel{
			Name:        string(name),
			Kind:        kindFromCode(rec.Kind),
			Unit:        unitString(rec.Unit),
			Calibration: rec.Calibration,
		}
		if rec.Flags&CH_FLAG_HAS_POSITION != 0 {
			ch.HasPosition = true
			ch.Position = [3]float64{rec.PosX, rec.PosY, rec.PosZ}
		}
		c.channels[i] = ch
	}

	if err := scanSections(f, c); err != nil {
		return nil, err
	}

	if c.hdr.Flags&HDR_FLAG_HAS_INDEX != 0 && !c.hasIndex {
		return nil, integrityErr(path, "header flags promise a block index, none found")
	}
	if c.dataOffset == 0 && c.hdr.NumSamples > 0 {
		return nil, integrityErr(path, "header declares %d samples but file has no data section", c.hdr.NumSamples)
	}
	if c.hasIndex {
		if err := validateIndex(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// scanSections walks the section list after the channel table, parsing the
// bads and index payloads and recording where the data section lives.
func scanSections(f *os.File, c *container) error {
	nch := int(c.hdr.NumChannels)
	cursor := int64(FILE_HEADER_SIZE + CHANNEL_RECORD_SIZE*nch)

	for cursor < c.size {
		if c.size-cursor < SECTION_HEADER_SIZE {
			return integrityErr(c.path, "%d trailing bytes at end of file", c.size-cursor)
		}
		var sh sectionHeader
		if err := binary.Read(f, binary.LittleEndian, &sh); err != nil {
			return formatErr(c.path, "read section header at offset %d: %v", cursor, err)
		}
		payloadStart := cursor + SECTION_HEADER_SIZE
		payloadEnd := payloadStart + int64(sh.Length)
		if payloadEnd > c.size || payloadEnd < payloadStart {
			return integrityErr(c.path, "%s section at offset %d extends past end of file", sectionName(sh.Type), cursor)
		}
		c.sections = append(c.sections, SectionInfo{
			Type:   sh.Type,
			Name:   sectionName(sh.Type),
			Offset: cursor,
			Length: sh.Length,
		})

		switch sh.Type {
		case SECTION_DATA:
			if c.dataOffset != 0 {
				return integrityErr(c.path, "multiple data sections")
			}
			c.dataOffset = payloadStart
			c.dataLen = int64(sh.Length)
			if _, err := f.Seek(payloadEnd, io.SeekStart); err != nil {
				return formatErr(c.path, "seek past data section: %v", err)
			}

		case SECTION_BADS:
			var count uint32
			if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
				return formatErr(c.path, "read bads count: %v", err)
			}
			if 4+4*uint64(count) != sh.Length {
				return integrityErr(c.path, "bads section length %d does not match count %d", sh.Length, count)
			}
			indices := make([]uint32, count)
			if count > 0 {
				if err := binary.Read(f, binary.LittleEndian, indices); err != nil {
					return formatErr(c.path, "read bads entries: %v", err)
				}
			}
			for _, idx := range indices {
				if int(idx) >= nch {
					return integrityErr(c.path, "bad channel index %d out of range [0,%d)", idx, nch)
				}
				c.bads = append(c.bads, c.channels[idx].Name)
			}

		case SECTION_INDEX:
			var count uint32
			if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
				return formatErr(c.path, "read index count: %v", err)
			}
			if 4+INDEX_ENTRY_SIZE*uint64(count) != sh.Length {
				return integrityErr(c.path, "index section length %d does not match count %d", sh.Length, count)
			}
			entries := make([]indexEntry, count)
			if count > 0 {
				if err := binary.Read(f, binary.LittleEndian, entries); err != nil {
					return formatErr(c.path, "read index entries: %v", err)
				}
			}
			c.index = entries
			c.hasIndex = true

		default:
			monitoring.Logf("Skipping unknown section type 0x%04x (%d bytes) in %s", sh.Type, sh.Length, c.path)
			if _, err := f.Seek(payloadEnd, io.SeekStart); err != nil {
				return formatErr(c.path, "seek past %s section: %v", sectionName(sh.Type), err)
			}
		}
		cursor = payloadEnd
	}
	return nil
}

// validateIndex checks that the block index is contiguous from sample zero,
// covers exactly the declared sample count, and stays inside the data
// section.
func validateIndex(c *container) error {
	nch := int64(c.hdr.NumChannels)
	dataEnd := c.dataOffset + c.dataLen

	var cum uint64
	for i, e := range c.index {
		if e.FirstSample != cum {
			return integrityErr(c.path, "index entry %d starts at sample %d, want %d", i, e.FirstSample, cum)
		}
		if e.NumSamples == 0 {
			return integrityErr(c.path, "index entry %d is empty", i)
		}
		blockEnd := int64(e.Offset) + BLOCK_HEADER_SIZE + int64(e.NumSamples)*nch*SAMPLE_SIZE
		if int64(e.Offset) < c.dataOffset || blockEnd > dataEnd {
			return integrityErr(c.path, "index entry %d points outside the data section", i)
		}
		cum += uint64(e.NumSamples)
	}
	if cum != c.hdr.NumSamples {
		return integrityErr(c.path, "index covers %d samples, header declares %d", cum, c.hdr.NumSamples)
	}
	return nil
}

// readAllBlocks materializes the data section into a channel-major matrix.
func readAllBlocks(f *os.File, c *container) ([][]float32, error) {
	nch := int(c.hdr.NumChannels)
	total := c.hdr.NumSamples

	// The declared matrix must fit in the data section before anything is
	// allocated for it.
	if total > 0 {
		required := total * uint64(nch) * SAMPLE_SIZE
		if uint64(c.dataLen) < required {
			return nil, integrityErr(c.path, "data section holds %d bytes, %d declared samples need %d", c.dataLen, total, required)
		}
	}

	rows := make([][]float32, nch)
	for i := range rows {
		rows[i] = make([]float32, total)
	}
	if c.dataOffset == 0 {
		return rows, nil
	}

	if _, err := f.Seek(c.dataOffset, io.SeekStart); err != nil {
		return nil, formatErr(c.path, "seek data section: %v", err)
	}

	var consumed int64
	var cursor uint64
	var buf []float32
	for consumed < c.dataLen {
		if c.dataLen-consumed < BLOCK_HEADER_SIZE {
			return nil, integrityErr(c.path, "truncated block header at data offset %d", consumed)
		}
		var bh blockHeader
		if err := binary.Read(f, binary.LittleEndian, &bh); err != nil {
			return nil, formatErr(c.path, "read block header: %v", err)
		}
		if bh.NumSamples == 0 {
			return nil, integrityErr(c.path, "empty data block at data offset %d", consumed)
		}
		if bh.FirstSample != cursor {
			return nil, integrityErr(c.path, "data block starts at sample %d, want %d", bh.FirstSample, cursor)
		}
		n := int(bh.NumSamples)
		payload := int64(n) * int64(nch) * SAMPLE_SIZE
		if consumed+BLOCK_HEADER_SIZE+payload > c.dataLen {
			return nil, integrityErr(c.path, "data block at offset %d extends past the data section", consumed)
		}
		if cursor+uint64(n) > total {
			return nil, integrityErr(c.path, "data blocks contain more samples than the header declares")
		}

		if cap(buf) < n*nch {
			buf = make([]float32, n*nch)
		}
		buf = buf[:n*nch]
		if err := binary.Read(f, binary.LittleEndian, buf); err != nil {
			return nil, formatErr(c.path, "read block samples: %v", err)
		}
		for s := 0; s < n; s++ {
			base := s * nch
			for ci := 0; ci < nch; ci++ {
				rows[ci][int(cursor)+s] = buf[base+ci]
			}
		}
		cursor += uint64(n)
		consumed += BLOCK_HEADER_SIZE + payload
	}
	if cursor != total {
		return nil, integrityErr(c.path, "data blocks contain %d samples, header declares %d", cursor, total)
	}
	return rows, nil
}

// Reader serves windowed reads from an open container through its block
// index. It implements eeg.SampleSource and is safe for concurrent use.
type Reader struct {
	mu    sync.Mutex
	f     *os.File
	path  string
	nch   int
	index []indexEntry
	buf   []float32 // block decode scratch
}

// ReadWindow returns channel-major raw samples for [start, start+count).
func (r *Reader) ReadWindow(start, count int) ([][]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return nil, fmt.Errorf("reader is closed")
	}
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("invalid window [%d,%d)", start, start+count)
	}

	out := make([][]float32, r.nch)
	for i := range out {
		out[i] = make([]float32, count)
	}
	if count == 0 {
		return out, nil
	}

	target := uint64(start)
	bi := sort.Search(len(r.index), func(i int) bool {
		e := r.index[i]
		return e.FirstSample+uint64(e.NumSamples) > target
	})

	filled := 0
	for filled < count {
		if bi >= len(r.index) {
			return nil, integrityErr(r.path, "block index does not cover samples [%d,%d)", start, start+count)
		}
		e := r.index[bi]
		cur := start + filled
		bStart := int(e.FirstSample)
		bEnd := bStart + int(e.NumSamples)
		if bStart > cur {
			return nil, integrityErr(r.path, "gap in block index before sample %d", cur)
		}

		raw, err := r.readBlock(e)
		if err != nil {
			return nil, err
		}
		from := cur - bStart
		take := bEnd - cur
		if take > count-filled {
			take = count - filled
		}
		for s := 0; s < take; s++ {
			base := (from + s) * r.nch
			for ci := 0; ci < r.nch; ci++ {
				out[ci][filled+s] = raw[base+ci]
			}
		}
		filled += take
		bi++
	}
	return out, nil
}

// readBlock reads and verifies one indexed block. The returned slice is the
// shared scratch buffer, valid until the next readBlock call.
func (r *Reader) readBlock(e indexEntry) ([]float32, error) {
	payload := int64(e.NumSamples) * int64(r.nch) * SAMPLE_SIZE
	sr := io.NewSectionReader(r.f, int64(e.Offset), BLOCK_HEADER_SIZE+payload)

	var bh blockHeader
	if err := binary.Read(sr, binary.LittleEndian, &bh); err != nil {
		return nil, formatErr(r.path, "read block header at offset %d: %v", e.Offset, err)
	}
	if bh.FirstSample != e.FirstSample || bh.NumSamples != e.NumSamples {
		return nil, integrityErr(r.path, "block at offset %d covers samples %d+%d, index says %d+%d",
			e.Offset, bh.FirstSample, bh.NumSamples, e.FirstSample, e.NumSamples)
	}

	need := int(e.NumSamples) * r.nch
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	if err := binary.Read(sr, binary.LittleEndian, r.buf); err != nil {
		return nil, formatErr(r.path, "read block samples at offset %d: %v", e.Offset, err)
	}
	return r.buf, nil
}

// Close releases the underlying file. Safe to call more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
