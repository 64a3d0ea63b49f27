package builder

import (
	"github.com/silkjs/corejit/internal/flow"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// startDeadcodeBlock is called right after emitting a terminator other
// than a structured block boundary (Return, Throw, an unconditional
// branch to a cleanup/exception block): it opens a fresh, as-yet
// unreachable block and makes it the insertion point, so any opcodes the
// frontend still emits on this path (there's always at least one more,
// since the grammar production hasn't ended yet) don't append
// instructions after a block's terminator. SimplifyCFG prunes it once
// dead-block elimination proves it unreachable (spec.md §4.2 item 11).
func (bld *Builder) startDeadcodeBlock() {
	bld.b.SetCurrentBlock(bld.b.CreateBlock())
}

// PushScope opens a lexical scope region: init/hoisted/block/cleanup
// blocks are created fresh and insertion moves to block. Init and
// hoisted stay open while the scope is built, so captures and hoisted
// declarations can still be added to them; PopScope closes them with
// the fallthrough jumps init -> hoisted -> block.
func (bld *Builder) PushScope() {
	init := bld.b.CreateBlock()
	hoisted := bld.b.CreateBlock()
	block := bld.b.CreateBlock()
	cleanup := bld.b.CreateBlock()

	bld.b.Insert(bld.b.AllocateInstruction().AsJump(init))
	bld.b.SetCurrentBlock(block)

	bld.flow.PushScope(flow.Scope{Init: init, Hoisted: hoisted, Block: block, Cleanup: cleanup})
}

// PopScope closes the innermost scope: init and hoisted get their
// fallthrough jumps, every captured local gets its EscapeVariable call
// emitted into the cleanup block, then the cleanup block is wired per
// the invariant in spec.md §4.3 — either an unconditional branch onward
// (nothing returned/threw on this path) or a dispatch on the status
// register to the right outer target.
func (bld *Builder) PopScope(capturedInScope []runtime.Locator) {
	sc := bld.flow.ScopeFrame()
	sc.Init.InsertInstruction(bld.b.AllocateInstruction().AsJump(sc.Hoisted))
	sc.Hoisted.InsertInstruction(bld.b.AllocateInstruction().AsJump(sc.Block))
	saved := bld.b.CurrentBlock()
	bld.b.SetCurrentBlock(sc.Cleanup)

	for _, loc := range capturedInScope {
		bld.EscapeVariable(loc)
	}

	popped := bld.flow.PopScope()
	bld.wireCleanupDispatch(popped)

	if saved != sc.Cleanup {
		bld.b.SetCurrentBlock(saved)
	}
}

func (bld *Builder) wireCleanupDispatch(sc flow.Scope) {
	if !sc.Returned && !sc.Thrown {
		bld.b.Insert(bld.b.AllocateInstruction().AsJump(bld.flow.CleanupBlock()))
		return
	}
	bld.branchOnLiveStatus(bld.flow.ExceptionBlock(), bld.flow.CleanupBlock())
}

// branchOnLiveStatus loads the status register and branches to
// exceptionTarget when it reads Exception, normalTarget otherwise. Used
// wherever a completion has to be routed dynamically because the
// register, not the static Returned/Thrown bookkeeping, is the only
// thing that reflects every path reaching this point (a fallthrough can
// land here with the register still holding whatever an earlier,
// unrelated Return/Throw last wrote to it).
func (bld *Builder) branchOnLiveStatus(exceptionTarget, normalTarget *ir.BasicBlock) {
	status := bld.loadStatus()
	excConst := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(runtime.StatusException))
	bld.b.Insert(excConst)
	isException := bld.b.AllocateInstruction().AsIEq(bld.b, status, excConst.Return())
	bld.b.Insert(isException)

	toException := bld.b.CreateBlock()
	toNormal := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(isException.Return(), toException, toNormal))

	bld.b.SetCurrentBlock(toException)
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(exceptionTarget))

	bld.b.SetCurrentBlock(toNormal)
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(normalTarget))
}

// statusSlot/flowSelectorSlot lazily allocate the function's shared
// status and flow-selector registers in the locals block (spec.md §4.2:
// "a status slot and a flow-selector slot, both u32 stack cells
// allocated in the locals block").
func (bld *Builder) statusSlot() ir.Value {
	if !bld.status.Valid() {
		bld.status = bld.b.InsertAlloca()
	}
	return bld.status
}

func (bld *Builder) flowSelectorSlot() ir.Value {
	if !bld.flowSelector.Valid() {
		bld.flowSelector = bld.b.InsertAlloca()
	}
	return bld.flowSelector
}

func (bld *Builder) storeStatus(v runtime.Status) {
	instr := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(v))
	bld.b.Insert(instr)
	bld.b.Insert(bld.b.AllocateInstruction().AsStoreI32(bld.statusSlot(), instr.Return()))
}

func (bld *Builder) loadStatus() ir.Value {
	instr := bld.b.AllocateInstruction().AsLoadI32(bld.b, bld.statusSlot())
	bld.b.Insert(instr)
	return instr.Return()
}

// --- Return/Throw ------------------------------------------------------------

// Return pops a value (if arity > 0) and stores it to retv, marks the
// current scope returned, sets status to Normal, and branches to the
// innermost cleanup block.
func (bld *Builder) Return(arity int) {
	if arity > 0 {
		v := bld.pop()
		boxed := bld.materializeAny(v)
		bld.b.Insert(bld.b.AllocateInstruction().AsCopyValue(bld.retvAddr(), boxed))
	}
	bld.storeStatus(runtime.StatusNormal)
	bld.flow.SetReturned()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(bld.flow.CleanupBlock()))
	bld.startDeadcodeBlock()
}

// Throw pops a value into retv, sets status to Exception, marks the
// scope thrown, and branches to the innermost exception block.
func (bld *Builder) Throw() {
	v := bld.pop()
	boxed := bld.materializeAny(v)
	bld.b.Insert(bld.b.AllocateInstruction().AsCopyValue(bld.retvAddr(), boxed))
	bld.storeStatus(runtime.StatusException)
	bld.flow.SetThrown()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(bld.flow.ExceptionBlock()))
	bld.startDeadcodeBlock()
}

// --- If/Else/Ternary ----------------------------------------------------------

// IfStatement pops the condition and branches: thenBlk runs when truthy,
// falling through to afterBlk directly (no else arm).
func (bld *Builder) IfStatement() (afterBlk *ir.BasicBlock) {
	cond := bld.toBooleanRaw(bld.pop())
	thenBlk := bld.b.CreateBlock()
	after := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(cond, thenBlk, after))
	bld.flow.PushBranch(flow.Branch{Before: bld.b.CurrentBlock(), After: after})
	bld.b.SetCurrentBlock(thenBlk)
	return after
}

// IfElseStatement is IfStatement's two-arm form: call Else() to switch
// into the else block once the then-arm is fully emitted, then EndIf()
// once the else-arm is emitted too.
func (bld *Builder) IfElseStatement() (elseBlk, afterBlk *ir.BasicBlock) {
	cond := bld.toBooleanRaw(bld.pop())
	thenBlk := bld.b.CreateBlock()
	elseBlk = bld.b.CreateBlock()
	after := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(cond, thenBlk, elseBlk))
	bld.flow.PushBranch(flow.Branch{Before: bld.b.CurrentBlock(), After: after})
	bld.b.SetCurrentBlock(thenBlk)
	return elseBlk, after
}

// Else switches the insertion point from a then-arm into its else
// block, closing the then-arm with a fallthrough to After first.
func (bld *Builder) Else(elseBlk *ir.BasicBlock) {
	br := bld.flow.PopBranch()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(br.After))
	bld.flow.PushBranch(br)
	bld.b.SetCurrentBlock(elseBlk)
}

// EndIf closes the still-open arm with a fallthrough to After and
// resumes insertion there.
func (bld *Builder) EndIf() {
	br := bld.flow.PopBranch()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(br.After))
	bld.b.SetCurrentBlock(br.After)
}

// --- While/Do/For loops --------------------------------------------------------

// LoopInit opens the loop's initializer region (for-loop init clause,
// empty for while/do-while).
func (bld *Builder) LoopInit() {
	branchBlk := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(branchBlk))
	bld.flow.PushLoopInit(flow.LoopInit{Branch: branchBlk, InsertPoint: bld.b.CurrentBlock()})
	bld.b.SetCurrentBlock(branchBlk)
}

// LoopTest emits the condition check; thenBlk is the loop body, elseBlk
// is what running out of iterations falls through to.
func (bld *Builder) LoopTest() {
	init := bld.flow.PopLoopInit()
	cond := bld.toBooleanRaw(bld.pop())
	thenBlk := bld.b.CreateBlock()
	elseBlk := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(cond, thenBlk, elseBlk))
	bld.flow.PushLoopTest(flow.LoopTest{Then: thenBlk, Else: elseBlk, InsertPoint: init.Branch})
	bld.b.SetCurrentBlock(thenBlk)
}

// LoopBody pushes the body region. The next-iteration block is created
// now, not in LoopNext, so Continue() calls compiled inside the body
// have a real block to jump to immediately: by the time any nested
// statement runs, every enclosing loop has already called LoopBody and
// so already has its own next-block, which is what lets a `continue
// outer;` buried inside an inner loop resolve without a forward-patch
// step. Any label symbols accumulated since the enclosing LoopInit are
// drained onto this loop's break/continue targets alongside the
// unlabelled (symbol 0) entry.
func (bld *Builder) LoopBody() {
	test := bld.flow.PopLoopTest()
	next := bld.b.CreateBlock()
	bld.flow.PushLoopBody(flow.LoopBody{Branch: test.Then, InsertPoint: test.InsertPoint})
	bld.flow.PushBreakTarget(test.Else, 0)
	bld.flow.PushContinueTarget(next, 0)
	for _, sym := range bld.pendingLabels {
		bld.flow.PushBreakTarget(test.Else, sym)
		bld.flow.PushContinueTarget(next, sym)
	}
	bld.pendingLabels = bld.pendingLabels[:0]
	bld.loopNextBlk = append(bld.loopNextBlk, next)
	bld.b.SetCurrentBlock(test.Then)
}

// LoopNext closes the body with a fallthrough into the next-iteration
// region (the loop's update clause for a for-loop, the test block
// itself for while/do-while) created back in LoopBody.
func (bld *Builder) LoopNext() {
	body := bld.flow.PopLoopBody()
	next := bld.loopNextBlk[len(bld.loopNextBlk)-1]
	bld.loopNextBlk = bld.loopNextBlk[:len(bld.loopNextBlk)-1]
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(next))
	bld.flow.PushLoopNext(flow.LoopNext{Branch: body.InsertPoint, InsertPoint: next})
	bld.b.SetCurrentBlock(next)
}

// LoopEnd closes the update clause with a branch back to the loop test
// and resumes insertion after the loop, popping this loop's break and
// continue targets (its own unlabelled entry plus any labels drained
// onto it by LoopBody).
func (bld *Builder) LoopEnd(labelCount int) *ir.BasicBlock {
	next := bld.flow.PopLoopNext()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(next.Branch))
	var after flow.Target
	for i := 0; i <= labelCount; i++ {
		after = bld.flow.PopBreakTarget()
		bld.flow.PopContinueTarget()
	}
	bld.b.SetCurrentBlock(after.Block)
	return after.Block
}

// --- Break/Continue -----------------------------------------------------------

// Break jumps to the target matching symbol (0 for an unlabelled break),
// searching from the innermost break target outward.
func (bld *Builder) Break(symbol uint32) {
	target := resolveTarget(bld.flow.BreakTargets(), symbol)
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(target))
	bld.startDeadcodeBlock()
}

// Continue is Break's continue-target counterpart.
func (bld *Builder) Continue(symbol uint32) {
	target := resolveTarget(bld.flow.ContinueTargets(), symbol)
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(target))
	bld.startDeadcodeBlock()
}

func resolveTarget(targets []flow.Target, symbol uint32) *ir.BasicBlock {
	for i := len(targets) - 1; i >= 0; i-- {
		if symbol == 0 || targets[i].Symbol == symbol {
			return targets[i].Block
		}
	}
	panic("builder: no matching break/continue target")
}

// LabelStart records a label symbol to be attached to the break/continue
// targets of the loop or switch it immediately precedes (`outer: while
// (...) { ... }`); LoopBody/CaseBlock drain pendingLabels when they push
// their own targets.
func (bld *Builder) LabelStart(symbol uint32) {
	bld.pendingLabels = append(bld.pendingLabels, symbol)
}

// --- Switch --------------------------------------------------------------------

// CaseBlock opens a switch statement over the popped discriminant,
// registering end as the break target (and as the target of any label
// immediately preceding the switch).
func (bld *Builder) CaseBlock() ir.Value {
	discr := bld.materializeAny(bld.pop())
	end := bld.b.CreateBlock()
	bld.flow.PushSelect(flow.Select{End: end})
	bld.flow.PushBreakTarget(end, 0)
	for _, sym := range bld.pendingLabels {
		bld.flow.PushBreakTarget(end, sym)
	}
	bld.pendingLabels = bld.pendingLabels[:0]
	return discr
}

// CaseClause compares discr against the popped case expression with
// strict equality, branching into a fresh case body block when it
// matches and otherwise falling through to the next clause's test.
func (bld *Builder) CaseClause(discr ir.Value) *ir.BasicBlock {
	caseVal := bld.materializeAny(bld.pop())
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperIsStrictlyEqual, ir.TypeI32, discr, caseVal)
	bld.b.Insert(call)

	body := bld.b.CreateBlock()
	next := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(call.Return(), body, next))
	bld.b.SetCurrentBlock(next)
	return body
}

// DefaultClause records block as the switch's default case, taken when
// no CaseClause matched.
func (bld *Builder) DefaultClause(block *ir.BasicBlock) {
	bld.flow.SetDefaultCaseBlock(block)
}

// CaseEnd closes one case body with a fallthrough to the next case (JS
// switch fallthrough semantics) or, for the last clause, to the default
// or end block.
func (bld *Builder) CaseEnd(fallInto *ir.BasicBlock) {
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(fallInto))
}

// Switch closes the statement: any remaining fallthrough chain to the
// default clause (if one exists) or straight to end, then resumes
// insertion at end. labelCount is the number of labels CaseBlock drained
// onto this switch's break target.
func (bld *Builder) Switch(lastClauseTestBlock *ir.BasicBlock, labelCount int) *ir.BasicBlock {
	sel := bld.flow.SelectFrame()
	bld.b.SetCurrentBlock(lastClauseTestBlock)
	target := sel.End
	if sel.DefaultCaseBlock != nil {
		target = sel.DefaultCaseBlock
	}
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(target))

	popped := bld.flow.PopSelect()
	for i := 0; i <= labelCount; i++ {
		bld.flow.PopBreakTarget()
	}
	bld.b.SetCurrentBlock(popped.End)
	return popped.End
}

// --- Try/Catch/Finally ----------------------------------------------------------

// Try opens a try/catch/finally region; catch/finally/end blocks are
// created up front so ExceptionBlock() resolution works for any Throw
// emitted while compiling the try body.
func (bld *Builder) Try() {
	tryBlk := bld.b.CreateBlock()
	catchBlk := bld.b.CreateBlock()
	finallyBlk := bld.b.CreateBlock()
	endBlk := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(tryBlk))
	bld.flow.PushException(flow.Exception{Try: tryBlk, Catch: catchBlk, Finally: finallyBlk, End: endBlk})
	bld.b.SetCurrentBlock(tryBlk)
}

// Catch closes the try body with a fallthrough to finally (nothing
// thrown) and switches insertion into the catch block, which is only
// ever reached through a Throw's jump to ExceptionBlock(). nominal
// is true when a real catch clause with a bound parameter follows:
// its body runs to normal completion (absent its own Return/Throw), so
// the status register is reset to Normal right away — otherwise a
// fallthrough path inside that body would read the stale Exception
// status the original Throw left behind and misroute into an outer
// exception block. A synthetic try/finally with no catch clause
// (nominal false) leaves status untouched, so TryEnd's dynamic check
// still sees the exception and re-raises it after finally runs.
func (bld *Builder) Catch(nominal bool) {
	exc := bld.flow.ExceptionFrame()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(exc.Finally))
	bld.flow.SetCaught(nominal)
	bld.b.SetCurrentBlock(exc.Catch)
	if nominal {
		bld.storeStatus(runtime.StatusNormal)
	}
}

// Exception pushes the pending completion value (whatever a Throw
// inside this try body last stored to retv) as an Any item, so a catch
// clause can bind it to its parameter the same way any other value
// assigns into a local.
func (bld *Builder) Exception() {
	bld.push(anyItem(bld.retvAddr()))
}

// Finally closes the catch arm with a fallthrough to finally and
// switches insertion there.
func (bld *Builder) Finally() {
	exc := bld.flow.ExceptionFrame()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(exc.Finally))
	bld.b.SetCurrentBlock(exc.Finally)
}

// TryEnd closes the finally arm, marks the region ended, and pops it,
// resuming insertion at end. Whether the finally arm falls through to
// end or re-raises into the enclosing exception block is decided from
// the live status register, not the static Thrown/Caught bookkeeping:
// Catch resets status to Normal only for a real, nominal catch clause,
// so an uncaught throw (no catch clause at all) or a catch/finally body
// that itself re-throws both still read Exception here, the same
// dynamic dispatch wireCleanupDispatch uses for a plain scope's
// cleanup.
func (bld *Builder) TryEnd() *ir.BasicBlock {
	bld.flow.SetEnded()
	exc := bld.flow.PopException()
	bld.branchOnLiveStatus(bld.flow.ExceptionBlock(), exc.End)
	bld.b.SetCurrentBlock(exc.End)
	return exc.End
}
