// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - user_transcript.*
//   - assistant_answer.*
//   - turn_state.*
//   - user_input.*
//   - history.*
//
// Semantics used across the package:
//
//   - Fragment: append-only text piece emitted in stream order.
//   - Snapshot: mutable point-in-time full text that can change over time.
//   - Transcript events always carry the cumulative transcript for the
//     current utterance (replace semantics, never concatenate).
//
// session events
//
//   - StatusChanged (session.status_changed): lifecycle transition of the
//     active session.
//   - Failure (session.failure): non-fatal failure surfaced to observers.
//
// user_transcript events
//
//   - TranscriptStarted (user_transcript.started): cumulative transcript
//     for a freshly started utterance (producer-side idle-gap hint).
//   - TranscriptUpdated (user_transcript.updated): cumulative transcript
//     continuation of the active utterance.
//
// assistant_answer events
//
//   - AnswerFragment (assistant_answer.fragment): streamed incremental
//     answer text.
//   - AnswerSnapshot (assistant_answer.snapshot): best current full answer
//     for late subscribers; may arrive out of order with fragments.
//
// turn_state events
//
//   - TurnCompleted (turn_state.completed): the backend finished generating
//     for the current exchange; sole turn boundary marker.
//
// user_input events
//
//   - AudioChunk (user_input.audio_frame): raw input audio forwarded to the
//     streaming provider (consumer to producer direction).
//   - ImageAttached (user_input.image_attached): base64 image content
//     belonging to the active exchange.
//
// history events
//
//   - HistoryAppended (history.appended): mirror of the bounded history
//     store after each archived turn.
package events
