package eegfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/cortical-data/eegview/internal/eeg"
)

// Writer streams a recording into an .eegr container. Frames are buffered
// into fixed-size blocks; Close writes the bads and index sections and
// backpatches the header with the final sample count.
type Writer struct {
	f            *os.File
	path         string
	fileID       uuid.UUID
	createdAt    time.Time
	sampleRate   float64
	channels     []eeg.Channel
	blockSamples int

	dataSectionOffset int64 // offset of the data section header, for backpatch
	pending           []float32
	pendingFirst      uint64
	totalSamples      uint64
	index             []indexEntry
	badIndices        []uint32
	closed            bool
}

// NewWriter creates path and writes the header and channel table. The
// channel set is fixed at creation; samples follow via WriteFrame.
func NewWriter(path string, channels []eeg.Channel, sampleRate float64) (*Writer, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels")
	}
	if len(channels) > MAX_CHANNELS {
		return nil, fmt.Errorf("%d channels exceeds limit %d", len(channels), MAX_CHANNELS)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", sampleRate)
	}
	seen := make(map[string]bool, len(channels))
	for i, ch := range channels {
		if ch.Name == "" {
			return nil, fmt.Errorf("channel %d has an empty name", i)
		}
		if len(ch.Name) > CHANNEL_NAME_SIZE {
			return nil, fmt.Errorf("channel name %q exceeds %d bytes", ch.Name, CHANNEL_NAME_SIZE)
		}
		if seen[ch.Name] {
			return nil, fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		seen[ch.Name] = true
		if _, ok := unitCode(ch.Unit); !ok {
			return nil, fmt.Errorf("channel %q has unknown unit %q", ch.Name, ch.Unit)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w := &Writer{
		f:            f,
		path:         path,
		fileID:       uuid.New(),
		createdAt:    time.Now(),
		sampleRate:   sampleRate,
		channels:     channels,
		blockSamples: DEFAULT_BLOCK_SAMPLES,
		pending:      make([]float32, 0, DEFAULT_BLOCK_SAMPLES*len(channels)),
	}

	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := w.writeChannelTable(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	// Data section header, length backpatched on Close
	w.dataSectionOffset = int64(FILE_HEADER_SIZE + CHANNEL_RECORD_SIZE*len(channels))
	if err := binary.Write(f, binary.LittleEndian, sectionHeader{Type: SECTION_DATA}); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write data section header: %w", err)
	}

	return w, nil
}

// FileID returns the UUID assigned to this container.
func (w *Writer) FileID() uuid.UUID { return w.fileID }

// SetBlockSamples overrides the data block length. Must be called before
// the first WriteFrame.
func (w *Writer) SetBlockSamples(n int) error {
	if n <= 0 {
		return fmt.Errorf("block size must be positive, got %d", n)
	}
	if w.totalSamples > 0 || len(w.pending) > 0 {
		return fmt.Errorf("block size cannot change after writing started")
	}
	w.blockSamples = n
	return nil
}

// SetBads records the named channels in the container's bads section.
func (w *Writer) SetBads(names []string) error {
	byName := make(map[string]uint32, len(w.channels))
	for i, ch := range w.channels {
		byName[ch.Name] = uint32(i)
	}
	indices := make([]uint32, 0, len(names))
	for _, name := range names {
		idx, ok := byName[name]
		if !ok {
			return fmt.Errorf("bad channel %q is not in the channel table", name)
		}
		indices = append(indices, idx)
	}
	w.badIndices = indices
	return nil
}

// WriteFrame appends one sample for every channel, in channel-table order.
func (w *Writer) WriteFrame(frame []float32) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	if len(frame) != len(w.channels) {
		return fmt.Errorf("frame has %d values for %d channels", len(frame), len(w.channels))
	}
	w.pending = append(w.pending, frame...)
	if len(w.pending) >= w.blockSamples*len(w.channels) {
		return w.flushBlock()
	}
	return nil
}

// WriteChannelMajor appends a channel-major matrix (one row per channel,
// equal row lengths) frame by frame.
func (w *Writer) WriteChannelMajor(data [][]float32) error {
	if len(data) != len(w.channels) {
		return fmt.Errorf("matrix has %d rows for %d channels", len(data), len(w.channels))
	}
	if len(data) == 0 {
		return nil
	}
	n := len(data[0])
	for i, row := range data {
		if len(row) != n {
			return fmt.Errorf("row %d has %d samples, want %d", i, len(row), n)
		}
	}
	frame := make([]float32, len(data))
	for s := 0; s < n; s++ {
		for c, row := range data {
			frame[c] = row[s]
		}
		if err := w.WriteFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered frames, writes the bads and index sections, and
// backpatches the header. The writer is unusable afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if len(w.pending) > 0 {
		if err := w.flushBlock(); err != nil {
			w.f.Close()
			return err
		}
	}

	dataEnd, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		w.f.Close()
		return fmt.Errorf("locate data section end: %w", err)
	}

	if err := w.writeBadsSection(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.writeIndexSection(); err != nil {
		w.f.Close()
		return err
	}

	// Backpatch the data section length
	dataLen := uint64(dataEnd - w.dataSectionOffset - SECTION_HEADER_SIZE)
	if _, err := w.f.Seek(w.dataSectionOffset, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("seek data section header: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, sectionHeader{Type: SECTION_DATA, Length: dataLen}); err != nil {
		w.f.Close()
		return fmt.Errorf("backpatch data section header: %w", err)
	}

	// Backpatch the file header with the final sample count
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("seek file header: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		w.f.Close()
		return err
	}

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	return w.f.Close()
}

func (w *Writer) writeHeader() error {
	hdr := fileHeader{
		Version:      FORMAT_VERSION,
		Flags:        HDR_FLAG_HAS_INDEX,
		HeaderSize:   FILE_HEADER_SIZE,
		FileID:       w.fileID,
		CreatedNanos: w.createdAt.UnixNano(),
		SampleRate:   w.sampleRate,
		NumChannels:  uint32(len(w.channels)),
		NumSamples:   w.totalSamples,
		BlockSamples: uint32(w.blockSamples),
	}
	copy(hdr.Magic[:], MAGIC)
	if err := binary.Write(w.f, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write file header: %w", err)
	}
	return nil
}

func (w *Writer) writeChannelTable() error {
	for _, ch := range w.channels {
		rec := channelRecord{
			Kind:        kindCode(ch.Kind),
			Calibration: ch.Calibration,
		}
		copy(rec.Name[:], ch.Name)
		rec.Unit, _ = unitCode(ch.Unit)
		if ch.HasPosition {
			rec.Flags |= CH_FLAG_HAS_POSITION
			rec.CoordFrame = COORD_FRAME_HEAD
			rec.PosX = ch.Position[0]
			rec.PosY = ch.Position[1]
			rec.PosZ = ch.Position[2]
		}
		if err := binary.Write(w.f, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("write channel record %q: %w", ch.Name, err)
		}
	}
	return nil
}

func (w *Writer) flushBlock() error {
	nch := len(w.channels)
	n := len(w.pending) / nch
	if n == 0 {
		return nil
	}

	offset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locate block offset: %w", err)
	}
	hdr := blockHeader{FirstSample: w.pendingFirst, NumSamples: uint32(n)}
	if err := binary.Write(w.f, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write block header: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, w.pending[:n*nch]); err != nil {
		return fmt.Errorf("write block samples: %w", err)
	}

	w.index = append(w.index, indexEntry{
		FirstSample: w.pendingFirst,
		NumSamples:  uint32(n),
		Offset:      uint64(offset),
	})
	w.pendingFirst += uint64(n)
	w.totalSamples += uint64(n)
	w.pending = w.pending[:0]
	return nil
}

func (w *Writer) writeBadsSection() error {
	hdr := sectionHeader{
		Type:   SECTION_BADS,
		Length: uint64(4 + 4*len(w.badIndices)),
	}
	if err := binary.Write(w.f, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write bads section header: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint32(len(w.badIndices))); err != nil {
		return fmt.Errorf("write bads count: %w", err)
	}
	if len(w.badIndices) > 0 {
		if err := binary.Write(w.f, binary.LittleEndian, w.badIndices); err != nil {
			return fmt.Errorf("write bads entries: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeIndexSection() error {
	hdr := sectionHeader{
		Type:   SECTION_INDEX,
		Length: uint64(4 + INDEX_ENTRY_SIZE*len(w.index)),
	}
	if err := binary.Write(w.f, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write index section header: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, uint32(len(w.index))); err != nil {
		return fmt.Errorf("write index count: %w", err)
	}
	for _, entry := range w.index {
		if err := binary.Write(w.f, binary.LittleEndian, entry); err != nil {
			return fmt.Errorf("write index entry: %w", err)
		}
	}
	return nil
}
