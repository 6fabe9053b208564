package rsocket

// AcquireFrame returns a pooled, reset Frame body for the given type.
// Unknown types (including anything above FrameResumeOK other than
// FrameExt) are returned as an *Ext so the caller can inspect or
// ignore them per the IGNORE flag.
func AcquireFrame(kind FrameType) Frame {
	switch kind {
	case FrameSetup:
		return AcquireSetup()
	case FrameLease:
		return AcquireLease()
	case FrameKeepalive:
		return AcquireKeepalive()
	case FrameRequestResponse:
		return AcquireRequestResponse()
	case FrameRequestFNF:
		return AcquireRequestFNF()
	case FrameRequestStream:
		return AcquireRequestStream()
	case FrameRequestChannel:
		return AcquireRequestChannel()
	case FrameRequestN:
		return AcquireRequestN()
	case FrameCancel:
		return AcquireCancel()
	case FramePayload:
		return AcquirePayloadFrame()
	case FrameError:
		return AcquireErrorFrame()
	case FrameMetadataPush:
		return AcquireMetadataPush()
	case FrameResume:
		return AcquireResume()
	case FrameResumeOK:
		return AcquireResumeOK()
	default:
		return AcquireExt()
	}
}

// ReleaseFrame returns fr to its type's pool.
func ReleaseFrame(fr Frame) {
	switch f := fr.(type) {
	case *Setup:
		ReleaseSetup(f)
	case *Lease:
		ReleaseLease(f)
	case *Keepalive:
		ReleaseKeepalive(f)
	case *RequestResponse:
		ReleaseRequestResponse(f)
	case *RequestFNF:
		ReleaseRequestFNF(f)
	case *RequestStream:
		ReleaseRequestStream(f)
	case *RequestChannel:
		ReleaseRequestChannel(f)
	case *RequestN:
		ReleaseRequestN(f)
	case *Cancel:
		ReleaseCancel(f)
	case *PayloadFrame:
		ReleasePayloadFrame(f)
	case *ErrorFrame:
		ReleaseErrorFrame(f)
	case *MetadataPush:
		ReleaseMetadataPush(f)
	case *Resume:
		ReleaseResume(f)
	case *ResumeOK:
		ReleaseResumeOK(f)
	case *Ext:
		ReleaseExt(f)
	}
}
