package graph

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/value"
)

func TestAddNode(t *testing.T) {
	g := newTestGraph(t)
	a := newTestNode("a")
	require.NoError(t, g.AddNode(a))

	t.Run("plugs are attached", func(t *testing.T) {
		assert.Equal(t, "a.in", a.inputs[0].FullName())
		assert.Same(t, g, a.out.Graph())
		assert.Equal(t, Node(a), a.out.Node())
		assert.False(t, a.out.Handle().IsZero())
		assert.NotEqual(t, a.inputs[0].Handle(), a.out.Handle())
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := g.AddNode(newTestNode("a"))
		assert.True(t, evalerr.IsGraphError(err))
	})

	t.Run("node already in a graph", func(t *testing.T) {
		err := newTestGraph(t).AddNode(a)
		assert.ErrorContains(t, err, "already belongs")
	})

	t.Run("invalid name", func(t *testing.T) {
		err := g.AddNode(newTestNode("not valid"))
		assert.ErrorContains(t, err, "invalid node name")
	})

	assert.Len(t, g.Nodes(), 1)
	assert.Nil(t, g.Node("missing"))
}

func TestPlugFlagsAndDefaults(t *testing.T) {
	n := newTestNode("n")
	assert.True(t, n.inputs[0].Flags().Has(AcceptsInputs))
	assert.False(t, n.out.Flags().Has(AcceptsInputs))
	assert.Equal(t, 0.0, n.inputs[0].Default())
	assert.Equal(t, "in", n.inputs[0].Direction().String())
	assert.Equal(t, "out", n.out.Direction().String())

	assert.Panics(t, func() { n.AddInput("in", value.Float) }, "duplicate plug")
	assert.Panics(t, func() { n.AddInput("bad name", value.Float) })
	assert.Panics(t, func() { n.AddInput("x", value.Int, WithDefault(1.5)) })
	assert.Panics(t, func() { n.out.AddChild("c", value.Float) }, "non-compound parent")
}

func TestDynamicPlugs(t *testing.T) {
	g := newTestGraph(t)
	n := newCompoundNode("c")
	addNodes(t, g, n)

	r := n.in.AddChild("b", value.Float)
	assert.True(t, r.Flags().Has(Dynamic))
	assert.Equal(t, "c.color.b", r.FullName())
	assert.False(t, r.Handle().IsZero())

	p, err := g.Plug("c.color.b")
	require.NoError(t, err)
	assert.Same(t, r, p)
}

func TestGraphPlugLookup(t *testing.T) {
	g := newTestGraph(t)
	c := newCompoundNode("c", "r", "g")
	addNodes(t, g, newTestNode("a", "x", "y"), c)

	testCases := []struct {
		path    string
		want    string
		wantErr evalerr.Code
	}{
		{path: "a.y", want: "a.y"},
		{path: "c.color.g", want: "c.color.g"},
		{path: "c.color[0]", want: "c.color.r"},
		{path: "c.result[1]", want: "c.result.g"},
		{path: "a", wantErr: evalerr.CodeInvalid},
		{path: "a..b", wantErr: evalerr.CodeInvalid},
		{path: "zz.out", wantErr: evalerr.CodeNotFound},
		{path: "a.nope", wantErr: evalerr.CodeNotFound},
		{path: "c.color[5]", wantErr: evalerr.CodeNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			p, err := g.Plug(tc.path)
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, evalerr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.FullName())
		})
	}
}

func TestSetInput(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b")
	addNodes(t, g, a, b)
	rec := &recorder{}
	g.Observe(rec)

	connect(t, g, b.inputs[0], a.out)

	assert.Same(t, a.out, b.inputs[0].Input())
	assert.Same(t, a.out, b.inputs[0].Source())
	assert.Equal(t, []*Plug{b.inputs[0]}, a.out.Outputs())
	assert.True(t, b.inputs[0].IsConnected())
	assert.Equal(t, []string{"b.in"}, rec.inputChanged)
	assert.Equal(t, []string{"b.in", "b.out"}, rec.dirtied)

	t.Run("reconnecting the same source is a no-op", func(t *testing.T) {
		rec.reset()
		connect(t, g, b.inputs[0], a.out)
		assert.Empty(t, rec.inputChanged)
		assert.Empty(t, rec.dirtied)
	})

	t.Run("disconnect", func(t *testing.T) {
		rec.reset()
		connect(t, g, b.inputs[0], nil)
		assert.Nil(t, b.inputs[0].Input())
		assert.Same(t, b.inputs[0], b.inputs[0].Source())
		assert.Empty(t, a.out.Outputs())
		assert.Equal(t, []string{"b.in"}, rec.inputChanged)
		assert.Equal(t, []string{"b.in", "b.out"}, rec.dirtied)
	})
}

func TestSetInput_Rejections(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b")
	s := &testNode{Base: NewBase("test", "s")}
	sOut := s.AddOutput("out", value.String)
	s.out = sOut
	veto := newTestNode("veto")
	veto.veto = func(dst, src *Plug) bool { return false }
	locked := &testNode{Base: NewBase("test", "locked")}
	lockedIn := locked.AddInput("in", value.Float, WithoutFlags(AcceptsInputs))
	locked.inputs = []*Plug{lockedIn}
	locked.out = locked.AddOutput("out", value.Float)
	c2, c3 := newCompoundNode("c2", "r", "g"), newCompoundNode("c3", "r", "g", "b")
	addNodes(t, g, a, b, s, veto, locked, c2, c3)
	connect(t, g, b.inputs[0], a.out)

	outsider := newTestNode("outsider")

	testCases := []struct {
		name     string
		dst, src *Plug
		code     evalerr.Code
	}{
		{"type mismatch", a.inputs[0], sOut, evalerr.CodeIncompatibleInput},
		{"self", a.inputs[0], a.inputs[0], evalerr.CodeIncompatibleInput},
		{"input as source", a.inputs[0], b.inputs[0], evalerr.CodeIncompatibleInput},
		{"output as destination", a.out, b.out, evalerr.CodeIncompatibleInput},
		{"node veto", veto.inputs[0], a.out, evalerr.CodeIncompatibleInput},
		{"does not accept inputs", lockedIn, a.out, evalerr.CodeIncompatibleInput},
		{"cycle", a.inputs[0], b.out, evalerr.CodeCycle},
		{"cycle through own node", a.inputs[0], a.out, evalerr.CodeCycle},
		{"compound vs leaf", c2.in, a.out, evalerr.CodeIncompatibleInput},
		{"child count", c2.in, c3.out, evalerr.CodeIncompatibleInput},
		{"outside graph", a.inputs[0], outsider.out, evalerr.CodeNotFound},
		{"nil destination", nil, a.out, evalerr.CodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			stop := g.Observe(rec)
			defer stop()

			err := g.SetInput(tc.dst, tc.src)
			require.Error(t, err)
			assert.Equal(t, tc.code, evalerr.CodeOf(err), err.Error())
			assert.True(t, evalerr.IsGraphError(err))
			assert.Empty(t, rec.inputChanged, "graph must stay unchanged")
			assert.Empty(t, rec.dirtied)
		})
	}

	assert.Same(t, a.out, b.inputs[0].Input())
	assert.Nil(t, a.inputs[0].Input())
}

func TestSetInput_AcceptsDependencyCycles(t *testing.T) {
	g := newTestGraph(t)
	a := &testNode{Base: NewBase("test", "a")}
	loop := a.AddInput("loop", value.Float, WithFlags(DefaultFlags|AcceptsDependencyCycles))
	a.inputs = []*Plug{loop}
	a.out = a.AddOutput("out", value.Float)
	addNodes(t, g, a)

	require.NoError(t, g.AcceptsInput(loop, a.out))
	connect(t, g, loop, a.out)
	assert.Same(t, a.out, loop.Input())
}

func TestSetInput_Compound(t *testing.T) {
	g := newTestGraph(t)
	src, dst := newCompoundNode("src", "r", "g"), newCompoundNode("dst", "r", "g")
	addNodes(t, g, src, dst)
	rec := &recorder{}
	g.Observe(rec)

	connect(t, g, dst.in, src.out)

	assert.Same(t, src.out, dst.in.Input())
	assert.Same(t, src.out.Child("r"), dst.in.Child("r").Input())
	assert.Same(t, src.out.Child("g"), dst.in.Child("g").Input())
	assert.Equal(t, []string{"dst.color", "dst.color.r", "dst.color.g"}, rec.inputChanged)
	assert.ElementsMatch(t,
		[]string{"dst.color", "dst.color.r", "dst.color.g", "dst.result", "dst.result.r", "dst.result.g"},
		rec.dirtied)
	assert.Len(t, rec.dirtied, 6, "each plug dirtied once")
}

func TestSetValue(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b")
	c := newCompoundNode("c", "r")
	addNodes(t, g, a, b, c)
	connect(t, g, b.inputs[0], a.out)
	rec := &recorder{}
	g.Observe(rec)

	require.NoError(t, g.SetValue(a.inputs[0], int64(3)))
	assert.Equal(t, 3.0, g.StaticValue(a.inputs[0]), "converted to the plug type")
	assert.Equal(t, []string{"a.in"}, rec.set)
	assert.Equal(t, []string{"a.in", "a.out", "b.in", "b.out"}, rec.dirtied)
	assert.Equal(t, uint64(1), g.DirtyCount(b.out))

	t.Run("unchanged value does not notify", func(t *testing.T) {
		rec.reset()
		require.NoError(t, g.SetValue(a.inputs[0], 3.0))
		assert.Empty(t, rec.set)
		assert.Empty(t, rec.dirtied)
		assert.Equal(t, uint64(1), g.DirtyCount(b.out))
	})

	t.Run("errors", func(t *testing.T) {
		assert.Equal(t, evalerr.CodeInvalid, evalerr.CodeOf(g.SetValue(b.inputs[0], 1.0)), "connected")
		assert.Equal(t, evalerr.CodeInvalid, evalerr.CodeOf(g.SetValue(c.in, 1.0)), "compound")
		assert.Equal(t, evalerr.CodeIncompatibleInput, evalerr.CodeOf(g.SetValue(a.inputs[0], "x")))
		assert.Equal(t, evalerr.CodeNotFound, evalerr.CodeOf(g.SetValue(nil, 1.0)))
	})

	assert.Equal(t, 0.0, g.StaticValue(b.inputs[0]), "default")
}

func TestDirtyPropagation_Diamond(t *testing.T) {
	g := newTestGraph(t)
	a, b, c := newTestNode("a"), newTestNode("b"), newTestNode("c")
	d := newTestNode("d", "in1", "in2")
	addNodes(t, g, a, b, c, d)
	connect(t, g, b.inputs[0], a.out)
	connect(t, g, c.inputs[0], a.out)
	connect(t, g, d.inputs[0], b.out)
	connect(t, g, d.inputs[1], c.out)

	rec := &recorder{}
	g.Observe(rec)
	before := g.DirtyCount(d.out)

	require.NoError(t, g.SetValue(a.inputs[0], 1.0))

	assert.Equal(t,
		[]string{"a.in", "a.out", "b.in", "b.out", "d.in1", "c.in", "c.out", "d.in2", "d.out"},
		rec.dirtied, "upstream first, each plug once")
	assert.Equal(t, before+1, g.DirtyCount(d.out))
}

func TestDirtyPropagation_ReentrantEdit(t *testing.T) {
	g := newTestGraph(t)
	a, b, x := newTestNode("a"), newTestNode("b"), newTestNode("x")
	addNodes(t, g, a, b, x)
	connect(t, g, b.inputs[0], a.out)

	rec := &recorder{}
	g.Observe(rec)
	fired := false
	g.Observe(ObserverFuncs{Dirtied: func(p *Plug) {
		if p == b.out && !fired {
			fired = true
			require.NoError(t, g.SetValue(x.inputs[0], 2.0))
		}
	}})

	require.NoError(t, g.SetValue(a.inputs[0], 1.0))

	assert.Equal(t, []string{"a.in", "a.out", "b.in", "b.out", "x.in", "x.out"}, rec.dirtied,
		"the nested edit is delivered as a new pass after the current one")
	assert.Equal(t, []string{"a.in", "x.in"}, rec.set)
}

func TestDirtyScope(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b", "in1", "in2")
	addNodes(t, g, a, b)
	connect(t, g, b.inputs[0], a.out)
	rec := &recorder{}
	g.Observe(rec)

	done := g.DirtyScope()
	inner := g.DirtyScope()
	require.NoError(t, g.SetValue(a.inputs[0], 1.0))
	require.NoError(t, g.SetValue(b.inputs[1], 2.0))
	inner()
	assert.Empty(t, rec.dirtied, "nothing is delivered while a scope is open")
	done()
	done()

	assert.Equal(t, []string{"a.in", "a.out", "b.in1", "b.in2", "b.out"}, rec.dirtied)
	assert.Equal(t, []string{"a.in", "b.in2"}, rec.set)
}

func TestRemoveNode(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b")
	addNodes(t, g, a, b)
	connect(t, g, b.inputs[0], a.out)
	oldHandle := a.out.Handle()

	rec := &recorder{}
	g.Observe(rec)
	require.NoError(t, g.RemoveNode("a"))

	assert.Nil(t, g.Node("a"))
	assert.Nil(t, b.inputs[0].Input())
	assert.Nil(t, g.resolve(oldHandle))
	assert.Nil(t, a.out.Graph())
	assert.Equal(t, []string{"b.in"}, rec.inputChanged)
	assert.Equal(t, []string{"b.in", "b.out"}, rec.dirtied)

	t.Run("slot reuse gets a new generation", func(t *testing.T) {
		n := newTestNode("n")
		addNodes(t, g, n)
		assert.Nil(t, g.resolve(oldHandle))
		for _, p := range []*Plug{n.inputs[0], n.out} {
			assert.Same(t, p, g.resolve(p.Handle()))
		}
	})

	assert.Equal(t, evalerr.CodeNotFound, evalerr.CodeOf(g.RemoveNode("a")))
}

func TestObserve_Unsubscribe(t *testing.T) {
	g := newTestGraph(t)
	a := newTestNode("a")
	addNodes(t, g, a)
	rec := &recorder{}
	stop := g.Observe(rec)
	stop()
	stop()
	require.NoError(t, g.SetValue(a.inputs[0], 1.0))
	assert.Empty(t, rec.dirtied)
}

func TestValidate(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b")
	b.check = func() error {
		if !b.inputs[0].IsConnected() {
			return errRequired
		}
		return nil
	}
	addNodes(t, g, a, b)

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errRequired)
	assert.ErrorContains(t, err, `node "b"`)

	connect(t, g, b.inputs[0], a.out)
	assert.NoError(t, g.Validate())
}

func TestWriteDOT(t *testing.T) {
	g := newTestGraph(t)
	a, b := newTestNode("a"), newTestNode("b")
	src, dst := newCompoundNode("src", "r", "g"), newCompoundNode("dst", "r", "g")
	addNodes(t, g, a, b, src, dst)
	connect(t, g, b.inputs[0], a.out)
	connect(t, g, dst.in, src.out)

	var buf bytes.Buffer
	require.NoError(t, g.WriteDOT(&buf))

	gd := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gd.Assert(t, "graph_dot", buf.Bytes())
}
