// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised    = ExistsError("already initialised")
	ErrBackendNotConfigured  = InvalidError("persistence backend is not configured")
	ErrDecryptionFailed      = InvalidError("decryption failed")
	ErrEnvelopeSignature     = InvalidError("envelope signature is invalid")
	ErrInvalidDifficulty     = InvalidError("invalid proof of work difficulty")
	ErrInvalidKeyChecksum    = InvalidError("invalid key checksum")
	ErrInvalidLoggerChannel  = ProcessError("invalid logger channel")
	ErrInvalidMetaData       = InvalidError("invalid metadata")
	ErrInvalidRequestKind    = InvalidError("invalid request kind")
	ErrInvalidStoreFamily    = InvalidError("invalid store family")
	ErrInvalidStructPointer  = InvalidError("invalid struct pointer")
	ErrKeyLength             = LengthError("key length is invalid")
	ErrMetaDataMismatch      = InvalidError("persisted metadata does not match store metadata")
	ErrMissingParameters     = InvalidError("missing parameters")
	ErrNotForReceiver        = InvalidError("envelope is not addressed to this receiver")
	ErrNotFound              = NotFoundError("not found")
	ErrNotInitialised        = NotFoundError("not initialised")
	ErrProofOfWorkCancelled  = ProcessError("proof of work cancelled")
	ErrRecordTooLong         = LengthError("record is too long")
	ErrSnapshotBOF           = RecordError("snapshot beginning of file marker is invalid")
	ErrSnapshotTruncated     = RecordError("snapshot is truncated")
	ErrSnapshotUnexpectedTag = RecordError("snapshot contains an unexpected tag")
	ErrStoreShutdown         = ProcessError("store is shut down")
	ErrTombstoned            = ExistsError("mailbox message was removed")
	ErrTooManyStores         = LengthError("too many stores")
	ErrTruncatedRecord       = RecordError("truncated record")
	ErrUnknownField          = RecordError("record contains an unknown field")
	ErrWrongDigestLength     = LengthError("digest length is invalid")
	ErrWrongSequence         = InvalidError("sequence number has not increased")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrLength(e error) bool   { _, ok := e.(LengthError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRecord(e error) bool   { _, ok := e.(RecordError); return ok }
