package enums

type MediaOwner string

const (
	MediaOwnerActivity MediaOwner = "activity"
	MediaOwnerUserPFP  MediaOwner = "user_pfp"
)

func (o MediaOwner) Valid() bool {
	return o == MediaOwnerActivity || o == MediaOwnerUserPFP
}
