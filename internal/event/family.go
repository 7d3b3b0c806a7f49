package event

// Event types emitted by the conferencing runtime.
const (
	TypeMeetingScheduled = "meeting.scheduled"
	TypeMeetingStarted   = "meeting.started"
	TypeMeetingEnded     = "meeting.ended"
	TypeMeetingCancelled = "meeting.cancelled"

	TypeParticipantJoined  = "participant.joined"
	TypeParticipantLeft    = "participant.left"
	TypeParticipantUpdated = "participant.updated"

	TypeTrackAdded   = "track.added"
	TypeTrackRemoved = "track.removed"

	TypeTranscriptionStatusChanged = "transcription.status.changed"
	TypeTranscriptionChunkReceived = "transcription.chunk.received"

	TypeMediaAudioMuted       = "media.audio.muted"
	TypeMediaAudioUnmuted     = "media.audio.unmuted"
	TypeMediaVideoMuted       = "media.video.muted"
	TypeMediaVideoUnmuted     = "media.video.unmuted"
	TypeMediaScreenShareStart = "media.screen_share.started"
	TypeMediaScreenShareStop  = "media.screen_share.stopped"
	TypeMediaDominantSpeaker  = "media.dominant_speaker.changed"
	TypeMediaDisplayName      = "media.display_name.changed"
	TypeMediaRaiseHand        = "media.raise_hand"
	TypeMediaRecordingStatus  = "media.recording.status"
)

// Family is the routing target of an event type. Classification is an
// explicit enumeration rather than a string-prefix match so that a new event
// family cannot be silently misrouted.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMeeting
	FamilyParticipant
	FamilyTrack
	FamilyTranscription
	FamilyMedia
)

func (f Family) String() string {
	switch f {
	case FamilyMeeting:
		return "meeting"
	case FamilyParticipant:
		return "participant"
	case FamilyTrack:
		return "track"
	case FamilyTranscription:
		return "transcription"
	case FamilyMedia:
		return "media"
	default:
		return "unknown"
	}
}

// Classify maps an event type to its family. Unknown types map to
// FamilyUnknown and fail processing with a descriptive error.
func Classify(eventType string) Family {
	switch eventType {
	case TypeMeetingScheduled, TypeMeetingStarted, TypeMeetingEnded, TypeMeetingCancelled:
		return FamilyMeeting
	case TypeParticipantJoined, TypeParticipantLeft, TypeParticipantUpdated:
		return FamilyParticipant
	case TypeTrackAdded, TypeTrackRemoved:
		return FamilyTrack
	case TypeTranscriptionStatusChanged, TypeTranscriptionChunkReceived:
		return FamilyTranscription
	case TypeMediaAudioMuted, TypeMediaAudioUnmuted,
		TypeMediaVideoMuted, TypeMediaVideoUnmuted,
		TypeMediaScreenShareStart, TypeMediaScreenShareStop,
		TypeMediaDominantSpeaker, TypeMediaDisplayName,
		TypeMediaRaiseHand, TypeMediaRecordingStatus:
		return FamilyMedia
	default:
		return FamilyUnknown
	}
}
