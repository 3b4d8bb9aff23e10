package diagram

import (
	"github.com/gogo/protobuf/proto"
)

// DiagramDef is the catalog record of one diagram.
type DiagramDef struct {
	N             int32  `protobuf:"varint,1,opt,name=N,proto3" json:"N,omitempty"`
	Code          uint64 `protobuf:"varint,2,opt,name=Code,proto3" json:"Code,omitempty"`
	EBonds        bool   `protobuf:"varint,3,opt,name=EBonds,proto3" json:"EBonds,omitempty"`
	Automorphisms int64  `protobuf:"varint,4,opt,name=Automorphisms,proto3" json:"Automorphisms,omitempty"`
	PermCount     int64  `protobuf:"varint,5,opt,name=PermCount,proto3" json:"PermCount,omitempty"`
	ReeHoover     int64  `protobuf:"zigzag64,6,opt,name=ReeHoover,proto3" json:"ReeHoover,omitempty"`
	Weight        string `protobuf:"bytes,7,opt,name=Weight,proto3" json:"Weight,omitempty"`
}

func (m *DiagramDef) Reset()         { *m = DiagramDef{} }
func (m *DiagramDef) String() string { return proto.CompactTextString(m) }
func (*DiagramDef) ProtoMessage()    {}

// DiagramSetDef is the catalog record of everything Generate returned for one GenerateOpts.
type DiagramSetDef struct {
	Opts     uint32        `protobuf:"varint,1,opt,name=Opts,proto3" json:"Opts,omitempty"`
	Diagrams []*DiagramDef `protobuf:"bytes,2,rep,name=Diagrams,proto3" json:"Diagrams,omitempty"`
}

func (m *DiagramSetDef) Reset()         { *m = DiagramSetDef{} }
func (m *DiagramSetDef) String() string { return proto.CompactTextString(m) }
func (*DiagramSetDef) ProtoMessage()    {}

// CatalogState is the catalog header record.
type CatalogState struct {
	MajorVers int32  `protobuf:"varint,1,opt,name=MajorVers,proto3" json:"MajorVers,omitempty"`
	MinorVers int32  `protobuf:"varint,2,opt,name=MinorVers,proto3" json:"MinorVers,omitempty"`
	NumSets   uint64 `protobuf:"varint,3,opt,name=NumSets,proto3" json:"NumSets,omitempty"`
}

func (m *CatalogState) Reset()         { *m = CatalogState{} }
func (m *CatalogState) String() string { return proto.CompactTextString(m) }
func (*CatalogState) ProtoMessage()    {}
